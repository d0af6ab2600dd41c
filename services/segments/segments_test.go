package segments

import (
	"testing"
	"time"
)

var t0 = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func at(min int) time.Time {
	return t0.Add(time.Duration(min) * time.Minute)
}

func ping(min int, st Status) Ping {
	return Ping{StoreID: "s1", Timestamp: at(min), Status: st}
}

func assertPartition(t *testing.T, segs []Segment, start, end time.Time) {
	t.Helper()
	if len(segs) == 0 {
		t.Fatal("expected segments")
	}
	if !segs[0].Start.Equal(start) {
		t.Fatalf("first segment starts at %v, want %v", segs[0].Start, start)
	}
	if !segs[len(segs)-1].End.Equal(end) {
		t.Fatalf("last segment ends at %v, want %v", segs[len(segs)-1].End, end)
	}
	for i := 1; i < len(segs); i++ {
		if !segs[i].Start.Equal(segs[i-1].End) {
			t.Fatalf("gap or overlap between segments %d and %d", i-1, i)
		}
	}
}

func TestBuildDegenerateRange(t *testing.T) {
	if got := Build(nil, nil, at(10), at(10)); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := Build(nil, nil, at(10), at(0)); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestBuildNoPingsDefaultsInactive(t *testing.T) {
	got := Build(nil, nil, at(0), at(60))
	if len(got) != 1 {
		t.Fatalf("expected single segment, got %v", got)
	}
	if got[0].Status != Inactive || !got[0].Start.Equal(at(0)) || !got[0].End.Equal(at(60)) {
		t.Fatalf("expected inactive full range, got %v", got[0])
	}
}

func TestBuildSeedDeterminesInitialStatus(t *testing.T) {
	seed := ping(-90, Active)
	got := Build(&seed, []Ping{ping(30, Inactive)}, at(0), at(60))

	assertPartition(t, got, at(0), at(60))
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %v", got)
	}
	if got[0].Status != Active || got[0].Duration() != 30*time.Minute {
		t.Fatalf("unexpected first segment %v", got[0])
	}
	if got[1].Status != Inactive || got[1].Duration() != 30*time.Minute {
		t.Fatalf("unexpected second segment %v", got[1])
	}
}

func TestBuildEarliestInRangeSeedsWithoutPrior(t *testing.T) {
	// no seed: the earliest in-range ping's status backfills to the
	// range start
	got := Build(nil, []Ping{ping(20, Active), ping(40, Inactive)}, at(0), at(60))

	assertPartition(t, got, at(0), at(60))
	if got[0].Status != Active || got[0].Duration() != 40*time.Minute {
		t.Fatalf("expected 40m active backfill, got %v", got[0])
	}
	if got[len(got)-1].Status != Inactive {
		t.Fatalf("expected inactive tail, got %v", got[len(got)-1])
	}
}

func TestBuildPingAtRangeStartEmitsNoZeroSegment(t *testing.T) {
	seed := ping(-10, Inactive)
	got := Build(&seed, []Ping{ping(0, Active)}, at(0), at(60))

	assertPartition(t, got, at(0), at(60))
	if len(got) != 1 {
		t.Fatalf("expected single segment, got %v", got)
	}
	if got[0].Status != Active {
		t.Fatalf("ping at range start must set status, got %v", got[0])
	}
}

func TestBuildPartitionMeasure(t *testing.T) {
	pings := []Ping{ping(5, Active), ping(17, Active), ping(33, Inactive), ping(59, Active)}
	got := Build(nil, pings, at(0), at(60))

	assertPartition(t, got, at(0), at(60))
	var total time.Duration
	for _, s := range got {
		total += s.Duration()
	}
	if total != time.Hour {
		t.Fatalf("segments cover %v, want 1h", total)
	}
}

func TestBuildDuplicateTimestampLastWins(t *testing.T) {
	// equal timestamps keep input order; the later row decides the
	// status from that instant on
	pings := []Ping{ping(30, Active), ping(30, Inactive)}
	seed := ping(-5, Active)
	got := Build(&seed, pings, at(0), at(60))

	assertPartition(t, got, at(0), at(60))
	last := got[len(got)-1]
	if last.Status != Inactive || last.Duration() != 30*time.Minute {
		t.Fatalf("expected 30m inactive tail, got %v", last)
	}
}

func TestBuildIgnoresOutOfRangePings(t *testing.T) {
	pings := []Ping{ping(-30, Active), ping(30, Active), ping(90, Inactive)}
	got := Build(nil, pings, at(0), at(60))

	assertPartition(t, got, at(0), at(60))
	for _, s := range got {
		if s.Status != Active {
			t.Fatalf("out-of-range ping leaked into %v", s)
		}
	}
}

func TestNormalize(t *testing.T) {
	for _, raw := range []string{"active", "ACTIVE", " 1 ", "up", "online", "true"} {
		if Normalize(raw) != Active {
			t.Fatalf("%q should normalize to active", raw)
		}
	}
	for _, raw := range []string{"inactive", "0", "down", "", "offline"} {
		if Normalize(raw) != Inactive {
			t.Fatalf("%q should normalize to inactive", raw)
		}
	}
}
