// Package jobs tracks report generation jobs for the trigger/poll API.
package jobs

import (
	"sync"
	"time"

	"store-monitor/services/report"
)

// State is a job's lifecycle phase as exposed to API clients.
type State string

const (
	StateRunning  State = "Running"
	StateFailed   State = "Failed"
	StateComplete State = "Complete"
)

// Job is one report run. Rows are retained in memory for alternate-format
// export; the CSV artifact lives on disk at CSVPath.
type Job struct {
	ID         string
	State      State
	CSVPath    string
	Rows       []report.Row
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

// Registry is an in-memory job store, safe for concurrent trigger and poll.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new Running job under id.
func (r *Registry) Create(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id] = &Job{ID: id, State: StateRunning, CreatedAt: time.Now().UTC()}
}

// Complete marks the job done. A job is only ever marked Complete after
// every row has been produced and the artifact fully written.
func (r *Registry) Complete(id, csvPath string, rows []report.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.State = StateComplete
		j.CSVPath = csvPath
		j.Rows = rows
		j.FinishedAt = time.Now().UTC()
	}
}

// Fail marks the job failed. Partial output is discarded.
func (r *Registry) Fail(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		j.State = StateFailed
		if err != nil {
			j.Error = err.Error()
		}
		j.FinishedAt = time.Now().UTC()
	}
}

// Get returns a copy of the job, if known.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}
