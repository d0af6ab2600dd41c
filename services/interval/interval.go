// Package interval provides the half-open UTC interval algebra the uptime
// computation is built on.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End) in UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the interval covers no time at all.
func (iv Interval) Empty() bool {
	return !iv.Start.Before(iv.End)
}

// Duration returns the covered span.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Clip returns the overlap of a and b. Intervals that only touch at a
// boundary have no overlap under half-open semantics.
func Clip(a, b Interval) (Interval, bool) {
	s := a.Start
	if b.Start.After(s) {
		s = b.Start
	}
	e := a.End
	if b.End.Before(e) {
		e = b.End
	}
	if !s.Before(e) {
		return Interval{}, false
	}
	return Interval{Start: s, End: e}, true
}

// Merge sorts intervals by start and combines overlapping neighbours.
// Touching intervals combine too, so the result is the minimal sorted,
// pairwise-disjoint cover of the input. Empty inputs are dropped.
func Merge(intervals []Interval) []Interval {
	xs := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Empty() {
			xs = append(xs, iv)
		}
	}
	sort.Slice(xs, func(i, j int) bool { return xs[i].Start.Before(xs[j].Start) })

	var out []Interval
	for _, iv := range xs {
		if len(out) == 0 || iv.Start.After(out[len(out)-1].End) {
			out = append(out, iv)
			continue
		}
		last := &out[len(out)-1]
		if iv.End.After(last.End) {
			last.End = iv.End
		}
	}
	return out
}
