package queue

import (
	"testing"

	"github.com/google/uuid"
)

func TestTracker(t *testing.T) {
	tr := NewTracker()
	job := NewExtractJob("sum", "x", "")

	if _, ok := tr.Get(job.ID); ok {
		t.Fatal("unknown job should not be found")
	}

	tr.Track(job)
	status, ok := tr.Get(job.ID)
	if !ok || status.Status != StatusQueued || status.Title != "sum" {
		t.Fatalf("Get() = %+v, %v; want queued", status, ok)
	}

	result := &ExtractResult{JobID: job.ID, Status: StatusCompleted, Cases: 3}
	tr.Record(result)
	result.Cases = 99

	status, _ = tr.Get(job.ID)
	if status.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", status.Status, StatusCompleted)
	}
	if status.Result == nil || status.Result.Cases != 3 {
		t.Errorf("Result = %+v, want a copy with 3 cases", status.Result)
	}
	if status.Title != "sum" || !status.QueuedAt.Equal(job.CreatedAt) {
		t.Errorf("queued fields lost: %+v", status)
	}
}

func TestTracker_RecordUntracked(t *testing.T) {
	tr := NewTracker()
	id := uuid.New()
	tr.Record(&ExtractResult{JobID: id, Status: StatusFailed})

	status, ok := tr.Get(id)
	if !ok || status.Status != StatusFailed {
		t.Errorf("Get() = %+v, %v; want failed", status, ok)
	}
}
