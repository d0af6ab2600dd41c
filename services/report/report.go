// Package report computes per-store uptime/downtime within business hours
// for the trailing hour, day and week, and serializes the result.
package report

import (
	"context"
	"errors"
	"time"

	"store-monitor/services/interval"
	"store-monitor/services/schedule"
	"store-monitor/services/segments"
)

// ErrNoPings is returned when no status observation exists anywhere, which
// leaves the report with no reference instant to compute from.
var ErrNoPings = errors.New("no status observations recorded")

// Row is one store's report line. Hour figures are minutes, day and week
// figures are hours, all fractional.
type Row struct {
	StoreID             string
	UptimeLastHourMin   float64
	UptimeLastDayHrs    float64
	UptimeLastWeekHrs   float64
	DowntimeLastHourMin float64
	DowntimeLastDayHrs  float64
	DowntimeLastWeekHrs float64
}

// Profile is a store's timezone and weekly schedule. An empty Timezone means
// the configured default zone; an empty Hours map means open 24x7.
type Profile struct {
	StoreID  string
	Timezone string
	Hours    schedule.Weekly
}

// Store is the data-access surface the generator computes from.
type Store interface {
	// StoreIDs returns every known store: the union of stores with pings
	// and stores with a timezone or schedule record.
	StoreIDs(ctx context.Context) ([]string, error)
	Profile(ctx context.Context, storeID string) (Profile, error)
	// Pings returns the store's pings with start <= ts < end.
	Pings(ctx context.Context, storeID string, start, end time.Time) ([]segments.Ping, error)
	// LastPingBefore returns the store's latest ping strictly before ts,
	// or nil when none exists.
	LastPingBefore(ctx context.Context, storeID string, ts time.Time) (*segments.Ping, error)
	// MaxPingTimestamp returns the latest ping timestamp across all
	// stores, or ErrNoPings when the dataset is empty.
	MaxPingTimestamp(ctx context.Context) (time.Time, error)
}

// Accumulate intersects status segments with business windows and returns
// the total active and inactive overlap in fractional minutes.
func Accumulate(segs []segments.Segment, windows []interval.Interval) (activeMin, inactiveMin float64) {
	for _, w := range windows {
		for _, s := range segs {
			ov, ok := interval.Clip(w, interval.Interval{Start: s.Start, End: s.End})
			if !ok {
				continue
			}
			mins := ov.Duration().Minutes()
			if s.Status == segments.Active {
				activeMin += mins
			} else {
				inactiveMin += mins
			}
		}
	}
	return activeMin, inactiveMin
}
