package jobs

import (
	"errors"
	"testing"

	"store-monitor/services/report"
)

func TestLifecycleComplete(t *testing.T) {
	r := NewRegistry()
	r.Create("job-1")

	j, ok := r.Get("job-1")
	if !ok {
		t.Fatal("job not found after create")
	}
	if j.State != StateRunning || j.CreatedAt.IsZero() {
		t.Fatalf("unexpected fresh job %+v", j)
	}

	rows := []report.Row{{StoreID: "s1", UptimeLastHourMin: 30}}
	r.Complete("job-1", "/tmp/report.csv", rows)

	j, _ = r.Get("job-1")
	if j.State != StateComplete {
		t.Fatalf("expected Complete, got %s", j.State)
	}
	if j.CSVPath != "/tmp/report.csv" || len(j.Rows) != 1 {
		t.Fatalf("completion payload missing: %+v", j)
	}
	if j.FinishedAt.IsZero() {
		t.Fatal("FinishedAt not set")
	}
}

func TestLifecycleFail(t *testing.T) {
	r := NewRegistry()
	r.Create("job-1")
	r.Fail("job-1", errors.New("clickhouse unreachable"))

	j, _ := r.Get("job-1")
	if j.State != StateFailed {
		t.Fatalf("expected Failed, got %s", j.State)
	}
	if j.Error != "clickhouse unreachable" {
		t.Fatalf("unexpected error text %q", j.Error)
	}
}

func TestUnknownID(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nope"); ok {
		t.Fatal("expected unknown id")
	}
	// completing or failing an unknown id is a no-op
	r.Complete("nope", "x", nil)
	r.Fail("nope", errors.New("x"))
	if _, ok := r.Get("nope"); ok {
		t.Fatal("no-op update must not create a job")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Create("job-1")

	j, _ := r.Get("job-1")
	j.State = StateFailed

	again, _ := r.Get("job-1")
	if again.State != StateRunning {
		t.Fatal("mutating the returned job must not affect the registry")
	}
}
