// Package segments reconstructs a store's continuous activity timeline from
// sparse status pings. The output is a step function: a gapless sequence of
// constant-status segments covering a query range exactly.
package segments

import (
	"sort"
	"strings"
	"time"
)

// Status is the observed availability state of a store.
type Status uint8

const (
	Inactive Status = iota
	Active
)

func (s Status) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Normalize maps raw status spellings from source data onto a Status.
// Anything not recognized as active counts as inactive.
func Normalize(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "1", "up", "online", "true":
		return Active
	}
	return Inactive
}

// Ping is a single observed status report for a store at an instant (UTC).
type Ping struct {
	StoreID   string
	Timestamp time.Time
	Status    Status
}

// Segment is a derived range [Start, End) during which the store's status
// was constant.
type Segment struct {
	Start  time.Time
	End    time.Time
	Status Status
}

// Duration returns the covered span.
func (s Segment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Build folds a ping history into segments partitioning [start, end) with no
// gaps and no overlaps. seed is the latest ping strictly before start and
// decides the status in effect at the range boundary; without one, the
// earliest in-range ping's status is used, and with no pings at all the
// whole range is a single inactive segment.
//
// Pings are sorted stably, so observations sharing a timestamp keep their
// input order and the last one decides the status from that instant on.
func Build(seed *Ping, pings []Ping, start, end time.Time) []Segment {
	if !start.Before(end) {
		return nil
	}

	in := make([]Ping, 0, len(pings))
	for _, p := range pings {
		if !p.Timestamp.Before(start) && p.Timestamp.Before(end) {
			in = append(in, p)
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].Timestamp.Before(in[j].Timestamp) })

	var current Status
	switch {
	case seed != nil:
		current = seed.Status
	case len(in) > 0:
		current = in[0].Status
	default:
		return []Segment{{Start: start, End: end, Status: Inactive}}
	}

	cursor := start
	var out []Segment
	for _, p := range in {
		// A ping exactly at the cursor flips the status without
		// emitting a zero-length segment.
		if p.Timestamp.After(cursor) {
			out = append(out, Segment{Start: cursor, End: p.Timestamp, Status: current})
			cursor = p.Timestamp
		}
		current = p.Status
	}
	if cursor.Before(end) {
		out = append(out, Segment{Start: cursor, End: end, Status: current})
	}
	return out
}
