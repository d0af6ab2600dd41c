package schedule

import (
	"time"

	"store-monitor/services/interval"
)

// atClock converts a wall-clock time on a local calendar day into an
// instant. A wall time inside a DST gap does not exist; time.Date
// normalizes it forward, so it is resolved against the offset in effect
// at that day's local midnight instead, keeping the requested wall clock.
func atClock(y int, m time.Month, d int, c Clock, loc *time.Location) time.Time {
	t := time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, loc)
	if t.Hour() == c.Hour && t.Minute() == c.Minute && t.Second() == c.Second {
		return t
	}
	_, offset := time.Date(y, m, d, 0, 0, 0, 0, loc).Zone()
	return time.Date(y, m, d, c.Hour, c.Minute, c.Second, 0, time.UTC).Add(-time.Duration(offset) * time.Second)
}

// DayWindows converts one span on a single local calendar day into UTC
// intervals. day must be a local midnight in loc. Same-day spans yield one
// interval; overnight spans split at the next local midnight and yield two.
// Each endpoint is converted through the zone on its own, so a DST change
// inside the span shifts only the endpoints it actually affects.
func DayWindows(day time.Time, sp Span, loc *time.Location) []interval.Interval {
	y, m, d := day.Date()
	open := atClock(y, m, d, sp.Open, loc)

	if !sp.Overnight() {
		close := atClock(y, m, d, sp.Close, loc)
		return []interval.Interval{{Start: open.UTC(), End: close.UTC()}}
	}

	nextMidnight := time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	closeNext := atClock(y, m, d+1, sp.Close, loc)
	return []interval.Interval{
		{Start: open.UTC(), End: nextMidnight.UTC()},
		{Start: nextMidnight.UTC(), End: closeNext.UTC()},
	}
}

// BusinessWindows returns the merged UTC intervals during which a store is
// scheduled open inside [start, end). An empty schedule means the store is
// open around the clock and the whole range is returned as one window.
//
// The walk starts at the local midnight of start's calendar date even when
// the range begins mid-day, so a span already open at the range start is
// still found and clipped.
func BusinessWindows(loc *time.Location, weekly Weekly, start, end time.Time) []interval.Interval {
	if !start.Before(end) {
		return nil
	}
	if len(weekly) == 0 {
		return []interval.Interval{{Start: start, End: end}}
	}

	bounds := interval.Interval{Start: start, End: end}
	endLocal := end.In(loc)
	y, m, d := start.In(loc).Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var out []interval.Interval
	for !day.After(endLocal) {
		for _, sp := range weekly[Weekday(day)] {
			for _, iv := range DayWindows(day, sp, loc) {
				if clipped, ok := interval.Clip(iv, bounds); ok {
					out = append(out, clipped)
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return interval.Merge(out)
}
