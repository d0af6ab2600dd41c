package interval

import (
	"testing"
	"time"
)

var base = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func iv(startMin, endMin int) Interval {
	return Interval{
		Start: base.Add(time.Duration(startMin) * time.Minute),
		End:   base.Add(time.Duration(endMin) * time.Minute),
	}
}

func TestClipSymmetry(t *testing.T) {
	a := iv(0, 60)
	b := iv(30, 90)

	ab, ok1 := Clip(a, b)
	ba, ok2 := Clip(b, a)
	if !ok1 || !ok2 {
		t.Fatal("expected overlap")
	}
	if ab != ba {
		t.Fatalf("clip not symmetric: %v vs %v", ab, ba)
	}
	if ab != iv(30, 60) {
		t.Fatalf("wrong overlap: %v", ab)
	}
}

func TestClipContainment(t *testing.T) {
	a := iv(0, 100)
	b := iv(40, 50)

	got, ok := Clip(a, b)
	if !ok {
		t.Fatal("expected overlap")
	}
	if got.Start.Before(a.Start) || got.End.After(a.End) || got.Start.Before(b.Start) || got.End.After(b.End) {
		t.Fatalf("overlap %v not contained in both inputs", got)
	}
}

func TestClipBoundaryTouchIsEmpty(t *testing.T) {
	if _, ok := Clip(iv(0, 30), iv(30, 60)); ok {
		t.Fatal("touching intervals must not overlap")
	}
	if _, ok := Clip(iv(0, 30), iv(45, 60)); ok {
		t.Fatal("disjoint intervals must not overlap")
	}
}

func TestMergeCombinesTouching(t *testing.T) {
	// touching intervals combine in Merge even though Clip treats the
	// shared boundary as no overlap
	got := Merge([]Interval{iv(30, 60), iv(0, 30)})
	if len(got) != 1 || got[0] != iv(0, 60) {
		t.Fatalf("expected single merged interval, got %v", got)
	}
}

func TestMergeSortedDisjointMinimal(t *testing.T) {
	got := Merge([]Interval{iv(50, 70), iv(0, 20), iv(10, 30), iv(100, 110)})

	want := []Interval{iv(0, 30), iv(50, 70), iv(100, 110)}
	if len(got) != len(want) {
		t.Fatalf("expected %d intervals, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("interval %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if !got[i].Start.After(got[i-1].End) {
			t.Fatalf("intervals %d and %d overlap or touch", i-1, i)
		}
	}
}

func TestMergePreservesMeasure(t *testing.T) {
	got := Merge([]Interval{iv(0, 20), iv(10, 30), iv(40, 50)})

	var total time.Duration
	for _, m := range got {
		total += m.Duration()
	}
	if total != 40*time.Minute {
		t.Fatalf("expected union measure 40m, got %v", total)
	}
}

func TestMergeDropsEmpty(t *testing.T) {
	got := Merge([]Interval{iv(10, 10), iv(30, 20)})
	if len(got) != 0 {
		t.Fatalf("expected no intervals, got %v", got)
	}
}
