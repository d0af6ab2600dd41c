// Package schedule models weekly local business hours and converts them
// into absolute UTC windows for a query range.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day. It carries no date and no zone; it is
// interpreted against a store's location when windows are built.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ParseClock parses "HH:MM" or "HH:MM:SS". Every part must be a bare
// integer; trailing text anywhere in the string is rejected.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Clock{}, fmt.Errorf("invalid clock time %q", s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Clock{}, fmt.Errorf("invalid clock time %q: %v", s, err)
		}
		vals[i] = n
	}
	c := Clock{Hour: vals[0], Minute: vals[1]}
	if len(vals) == 3 {
		c.Second = vals[2]
	}
	if c.Hour < 0 || c.Hour > 23 || c.Minute < 0 || c.Minute > 59 || c.Second < 0 || c.Second > 59 {
		return Clock{}, fmt.Errorf("clock time %q out of range", s)
	}
	return c, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// After reports whether c is later in the day than o.
func (c Clock) After(o Clock) bool {
	return c.seconds() > o.seconds()
}

func (c Clock) seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

// Span is one open/close pair on a weekday. Open later than Close denotes a
// window that runs past midnight into the next calendar day.
type Span struct {
	Open  Clock
	Close Clock
}

// Overnight reports whether the span crosses local midnight.
func (sp Span) Overnight() bool {
	return sp.Open.After(sp.Close)
}

// Weekly maps day-of-week (0=Monday .. 6=Sunday) to that day's spans. A day
// with no entry is closed. A Weekly with no entries at all means the store
// never reported hours and is treated as always open.
type Weekly map[int][]Span

// Weekday maps a local instant onto the Monday-zero day index used by Weekly.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
