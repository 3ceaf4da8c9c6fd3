package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewConsumer_Defaults(t *testing.T) {
	c := NewConsumer(nil, nil, ConsumerConfig{})

	if c.workers != 3 {
		t.Errorf("workers = %d, want 3", c.workers)
	}
	if c.prefetch != 1 {
		t.Errorf("prefetch = %d, want 1", c.prefetch)
	}
}

func TestNewConsumer_CustomConfig(t *testing.T) {
	c := NewConsumer(nil, nil, ConsumerConfig{Workers: 8, Prefetch: 4})

	if c.workers != 8 || c.prefetch != 4 {
		t.Errorf("workers, prefetch = %d, %d; want 8, 4", c.workers, c.prefetch)
	}
}

func TestConsumer_Stop_NotStarted(t *testing.T) {
	c := NewConsumer(nil, nil, DefaultConsumerConfig())
	c.Stop()
}

func encodeJob(t *testing.T, job *ExtractJob) []byte {
	t.Helper()
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestConsumer_Handle(t *testing.T) {
	fixtureID := uuid.New()
	c := &Consumer{handler: func(_ context.Context, job *ExtractJob) (*ExtractResult, error) {
		return &ExtractResult{FixtureID: fixtureID, Strategy: "smart", Cases: 2}, nil
	}}
	job := NewExtractJob("t", "输入：1\n输出：1", "")

	result, err := c.handle(context.Background(), encodeJob(t, job))
	if err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if result.JobID != job.ID {
		t.Errorf("JobID = %s, want %s", result.JobID, job.ID)
	}
	if result.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", result.Status, StatusCompleted)
	}
	if result.FixtureID != fixtureID || result.Cases != 2 {
		t.Errorf("result = %+v", result)
	}
	if result.CompletedAt.IsZero() {
		t.Error("CompletedAt should be set")
	}
}

func TestConsumer_Handle_HandlerError(t *testing.T) {
	c := &Consumer{handler: func(context.Context, *ExtractJob) (*ExtractResult, error) {
		return nil, errors.New("store unavailable")
	}}
	job := NewExtractJob("t", "x", "")

	result, err := c.handle(context.Background(), encodeJob(t, job))
	if err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if result.Status != StatusFailed || result.Error != "store unavailable" {
		t.Errorf("result = %+v, want failed with handler error", result)
	}
	if result.JobID != job.ID {
		t.Errorf("JobID = %s, want %s", result.JobID, job.ID)
	}
}

func TestConsumer_Handle_Timeout(t *testing.T) {
	c := &Consumer{handler: func(ctx context.Context, _ *ExtractJob) (*ExtractResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	job := NewExtractJob("t", "x", "")
	job.Timeout = 1

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := c.handle(ctx, encodeJob(t, job))
	if err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if result.Status != StatusTimeout {
		t.Errorf("Status = %q, want %q", result.Status, StatusTimeout)
	}
}

func TestConsumer_Handle_Malformed(t *testing.T) {
	c := &Consumer{handler: func(context.Context, *ExtractJob) (*ExtractResult, error) {
		t.Error("handler should not run for a malformed body")
		return nil, nil
	}}

	if _, err := c.handle(context.Background(), []byte("{not json")); err == nil {
		t.Error("handle() should fail on malformed JSON")
	}
}

func TestResultConsumer_Dispatch(t *testing.T) {
	rc := NewResultConsumer(nil)
	jobID := uuid.New()

	var mu sync.Mutex
	var perJob, all []uuid.UUID
	rc.Subscribe(jobID.String(), func(r *ExtractResult) {
		mu.Lock()
		defer mu.Unlock()
		perJob = append(perJob, r.JobID)
	})
	rc.OnAny(func(r *ExtractResult) {
		mu.Lock()
		defer mu.Unlock()
		all = append(all, r.JobID)
	})

	other := uuid.New()
	for _, id := range []uuid.UUID{jobID, other} {
		body, _ := json.Marshal(ExtractResult{JobID: id, Status: StatusCompleted})
		if err := rc.dispatch(body); err != nil {
			t.Fatalf("dispatch() error = %v", err)
		}
	}

	if len(perJob) != 1 || perJob[0] != jobID {
		t.Errorf("per-job handler saw %v, want [%s]", perJob, jobID)
	}
	if len(all) != 2 {
		t.Errorf("OnAny handler saw %d results, want 2", len(all))
	}
}

func TestResultConsumer_Unsubscribe(t *testing.T) {
	rc := NewResultConsumer(nil)
	jobID := uuid.New()
	called := false
	rc.Subscribe(jobID.String(), func(*ExtractResult) { called = true })
	rc.Unsubscribe(jobID.String())

	body, _ := json.Marshal(ExtractResult{JobID: jobID})
	if err := rc.dispatch(body); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("handler should not be called after Unsubscribe")
	}
}

func TestResultConsumer_DispatchMalformed(t *testing.T) {
	if err := NewResultConsumer(nil).dispatch([]byte("nope")); err == nil {
		t.Error("dispatch() should fail on malformed JSON")
	}
}

func TestResultConsumer_Stop_NotStarted(t *testing.T) {
	NewResultConsumer(nil).Stop()
}
