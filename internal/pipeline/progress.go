package pipeline

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress is a point-in-time view of the current (or last) run.
type Progress struct {
	Running    bool      `json:"running"`
	Status     Status    `json:"status"`
	RunID      string    `json:"run_id,omitempty"`
	Stage      string    `json:"stage,omitempty"`
	Percent    int       `json:"progress"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	LastUpdate time.Time `json:"last_update,omitempty"`
}

// tracker serializes all status transitions behind one mutex, so the HTTP
// surface and the run goroutine never observe a half-updated state.
type tracker struct {
	mu       sync.Mutex
	progress Progress
}

func newTracker() *tracker {
	return &tracker{progress: Progress{Status: StatusIdle}}
}

// begin transitions idle/completed/failed -> running.
// Returns false when a run is already in flight.
func (t *tracker) begin(runID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.progress.Running {
		return false
	}

	t.progress = Progress{
		Running:    true,
		Status:     StatusRunning,
		RunID:      runID,
		Percent:    0,
		StartedAt:  now,
		LastUpdate: now,
	}
	return true
}

func (t *tracker) update(stage string, percent int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Stage = stage
	t.progress.Percent = percent
	t.progress.Message = message
	t.progress.LastUpdate = time.Now()
}

func (t *tracker) complete() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Running = false
	t.progress.Status = StatusCompleted
	t.progress.Percent = 100
	t.progress.Stage = "done"
	t.progress.LastUpdate = time.Now()
}

func (t *tracker) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.progress.Running = false
	t.progress.Status = StatusFailed
	t.progress.Error = err.Error()
	t.progress.LastUpdate = time.Now()
}

func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.progress
}
