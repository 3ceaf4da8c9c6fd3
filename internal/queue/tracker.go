package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the last known state of a queued job
type JobStatus struct {
	JobID     uuid.UUID      `json:"job_id"`
	Title     string         `json:"title,omitempty"`
	Status    string         `json:"status"`
	QueuedAt  time.Time      `json:"queued_at"`
	Result    *ExtractResult `json:"result,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Tracker keeps job statuses in memory for the lifetime of the daemon
type Tracker struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]JobStatus
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[uuid.UUID]JobStatus)}
}

// Track marks a job as queued
func (t *Tracker) Track(job *ExtractJob) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[job.ID] = JobStatus{
		JobID:     job.ID,
		Title:     job.Title,
		Status:    StatusQueued,
		QueuedAt:  job.CreatedAt,
		UpdatedAt: time.Now(),
	}
}

// Record stores a job result. Results for untracked jobs are kept too,
// since another daemon may have queued them.
func (t *Tracker) Record(result *ExtractResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status := t.jobs[result.JobID]
	status.JobID = result.JobID
	status.Status = result.Status
	r := *result
	status.Result = &r
	status.UpdatedAt = time.Now()
	t.jobs[result.JobID] = status
}

// Get returns the status of a job
func (t *Tracker) Get(id uuid.UUID) (JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.jobs[id]
	return status, ok
}
