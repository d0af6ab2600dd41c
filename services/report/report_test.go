package report

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"store-monitor/services/interval"
	"store-monitor/services/segments"
)

// fakeStore is an in-memory Store for generator tests.
type fakeStore struct {
	profiles map[string]Profile
	pings    map[string][]segments.Ping
}

func (f *fakeStore) StoreIDs(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	for id := range f.profiles {
		seen[id] = true
	}
	for id := range f.pings {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeStore) Profile(ctx context.Context, storeID string) (Profile, error) {
	if p, ok := f.profiles[storeID]; ok {
		return p, nil
	}
	return Profile{StoreID: storeID}, nil
}

func (f *fakeStore) Pings(ctx context.Context, storeID string, start, end time.Time) ([]segments.Ping, error) {
	var out []segments.Ping
	for _, p := range f.pings[storeID] {
		if !p.Timestamp.Before(start) && p.Timestamp.Before(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) LastPingBefore(ctx context.Context, storeID string, ts time.Time) (*segments.Ping, error) {
	var latest *segments.Ping
	for i, p := range f.pings[storeID] {
		if p.Timestamp.Before(ts) {
			latest = &f.pings[storeID][i]
		}
	}
	return latest, nil
}

func (f *fakeStore) MaxPingTimestamp(ctx context.Context) (time.Time, error) {
	var max time.Time
	found := false
	for _, ps := range f.pings {
		for _, p := range ps {
			if !found || p.Timestamp.After(max) {
				max, found = p.Timestamp, true
			}
		}
	}
	if !found {
		return time.Time{}, ErrNoPings
	}
	return max, nil
}

var now = time.Date(2024, 1, 15, 18, 0, 0, 0, time.UTC)

func approx(got, want float64) bool {
	d := got - want
	return d < 1e-6 && d > -1e-6
}

func TestAccumulateSplitsByStatus(t *testing.T) {
	segs := []segments.Segment{
		{Start: now.Add(-time.Hour), End: now.Add(-30 * time.Minute), Status: segments.Active},
		{Start: now.Add(-30 * time.Minute), End: now, Status: segments.Inactive},
	}
	windows := []interval.Interval{{Start: now.Add(-time.Hour), End: now}}

	active, inactive := Accumulate(segs, windows)
	if !approx(active, 30) || !approx(inactive, 30) {
		t.Fatalf("expected 30/30 minutes, got %v/%v", active, inactive)
	}
}

func TestAccumulateIgnoresTimeOutsideWindows(t *testing.T) {
	segs := []segments.Segment{
		{Start: now.Add(-time.Hour), End: now, Status: segments.Active},
	}
	windows := []interval.Interval{{Start: now.Add(-20 * time.Minute), End: now.Add(-10 * time.Minute)}}

	active, inactive := Accumulate(segs, windows)
	if !approx(active, 10) || !approx(inactive, 0) {
		t.Fatalf("expected 10/0 minutes, got %v/%v", active, inactive)
	}
}

func TestGeneratorRowValues(t *testing.T) {
	store := &fakeStore{
		profiles: map[string]Profile{
			"s1": {StoreID: "s1", Timezone: "UTC"},
		},
		pings: map[string][]segments.Ping{
			"s1": {
				{StoreID: "s1", Timestamp: now.Add(-time.Hour), Status: segments.Active},
				{StoreID: "s1", Timestamp: now.Add(-30 * time.Minute), Status: segments.Inactive},
				{StoreID: "s1", Timestamp: now, Status: segments.Inactive},
			},
		},
	}

	gen := NewGenerator(store, "UTC", 1, nil)
	rows, err := gen.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %v", rows)
	}

	r := rows[0]
	// last hour: active for 30 minutes, then inactive
	if !approx(r.UptimeLastHourMin, 30) || !approx(r.DowntimeLastHourMin, 30) {
		t.Fatalf("hour: got up=%v down=%v", r.UptimeLastHourMin, r.DowntimeLastHourMin)
	}
	// earlier in the day no ping exists; the earliest observation
	// backfills active status to the window start
	if !approx(r.UptimeLastDayHrs, 23.5) || !approx(r.DowntimeLastDayHrs, 0.5) {
		t.Fatalf("day: got up=%v down=%v", r.UptimeLastDayHrs, r.DowntimeLastDayHrs)
	}
	if !approx(r.UptimeLastWeekHrs, 167.5) || !approx(r.DowntimeLastWeekHrs, 0.5) {
		t.Fatalf("week: got up=%v down=%v", r.UptimeLastWeekHrs, r.DowntimeLastWeekHrs)
	}
}

func TestGeneratorStoreWithoutPingsIsAllDowntime(t *testing.T) {
	store := &fakeStore{
		profiles: map[string]Profile{
			"quiet": {StoreID: "quiet", Timezone: "UTC"},
		},
		pings: map[string][]segments.Ping{
			"other": {{StoreID: "other", Timestamp: now, Status: segments.Active}},
		},
	}

	gen := NewGenerator(store, "UTC", 2, nil)
	rows, err := gen.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two rows, got %v", rows)
	}

	quiet := rows[1]
	if quiet.StoreID != "quiet" {
		t.Fatalf("expected quiet second after sort, got %v", rows)
	}
	if !approx(quiet.DowntimeLastHourMin, 60) || !approx(quiet.UptimeLastHourMin, 0) {
		t.Fatalf("hour: got up=%v down=%v", quiet.UptimeLastHourMin, quiet.DowntimeLastHourMin)
	}
	if !approx(quiet.DowntimeLastDayHrs, 24) || !approx(quiet.DowntimeLastWeekHrs, 168) {
		t.Fatalf("day/week: got %v/%v", quiet.DowntimeLastDayHrs, quiet.DowntimeLastWeekHrs)
	}
}

func TestGeneratorRowsSortedByStoreID(t *testing.T) {
	store := &fakeStore{
		profiles: map[string]Profile{},
		pings: map[string][]segments.Ping{
			"zeta":  {{StoreID: "zeta", Timestamp: now, Status: segments.Active}},
			"alpha": {{StoreID: "alpha", Timestamp: now.Add(-time.Minute), Status: segments.Active}},
			"mid":   {{StoreID: "mid", Timestamp: now.Add(-2 * time.Minute), Status: segments.Inactive}},
		},
	}

	gen := NewGenerator(store, "UTC", 3, nil)
	rows, err := gen.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, r := range rows {
		ids = append(ids, r.StoreID)
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("rows not sorted: %v", ids)
	}
}

func TestGeneratorNoPingsAnywhere(t *testing.T) {
	store := &fakeStore{profiles: map[string]Profile{"s1": {StoreID: "s1"}}}

	gen := NewGenerator(store, "UTC", 1, nil)
	if _, err := gen.Run(context.Background()); !errors.Is(err, ErrNoPings) {
		t.Fatalf("expected ErrNoPings, got %v", err)
	}
}

func TestGeneratorDeterministicOutput(t *testing.T) {
	store := &fakeStore{
		profiles: map[string]Profile{"s1": {StoreID: "s1", Timezone: "UTC"}},
		pings: map[string][]segments.Ping{
			"s1": {
				{StoreID: "s1", Timestamp: now.Add(-45 * time.Minute), Status: segments.Active},
				{StoreID: "s1", Timestamp: now.Add(-10 * time.Minute), Status: segments.Inactive},
			},
			"s2": {
				{StoreID: "s2", Timestamp: now, Status: segments.Active},
			},
		},
	}

	gen := NewGenerator(store, "UTC", 4, nil)
	render := func() []byte {
		t.Helper()
		rows, err := gen.RunAt(context.Background(), now)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := WriteCSV(&buf, rows); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	first := render()
	second := render()
	if !bytes.Equal(first, second) {
		t.Fatalf("repeated runs differ:\n%s\nvs\n%s", first, second)
	}
}

func TestWriteCSVFormat(t *testing.T) {
	rows := []Row{{
		StoreID:             "s1",
		UptimeLastHourMin:   30.125,
		UptimeLastDayHrs:    23.5,
		UptimeLastWeekHrs:   167.5,
		DowntimeLastHourMin: 29.875,
		DowntimeLastDayHrs:  0.5,
		DowntimeLastWeekHrs: 0.5,
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %q", buf.String())
	}
	wantHeader := "store_id,uptime_last_hour_minutes,uptime_last_day_hours,uptime_last_week_hours,downtime_last_hour_minutes,downtime_last_day_hours,downtime_last_week_hours"
	if lines[0] != wantHeader {
		t.Fatalf("wrong header: %q", lines[0])
	}
	if lines[1] != "s1,30.13,23.5,167.5,29.88,0.5,0.5" {
		t.Fatalf("wrong row: %q", lines[1])
	}
}
