//go:build integration

package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/exemplar/internal/extract"
	"github.com/felixgeelhaar/exemplar/internal/queue"
)

// setupRabbitMQ starts a RabbitMQ container and returns a connection to it
func setupRabbitMQ(t *testing.T) *queue.Connection {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestIntegration_Connection(t *testing.T) {
	conn := setupRabbitMQ(t)

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if conn.IsConnected() {
		t.Error("expected connection to be closed")
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	if _, err := queue.NewConnection("amqp://invalid:5672"); err == nil {
		t.Error("expected error for unreachable broker")
	}
}

func TestIntegration_Producer_PublishExtractJob(t *testing.T) {
	conn := setupRabbitMQ(t)

	job := queue.NewExtractJob("sum", "输入：1 2\n输出：3", "")
	if err := queue.NewProducer(conn).PublishExtractJob(context.Background(), job); err != nil {
		t.Fatalf("PublishExtractJob() error = %v", err)
	}

	q, err := conn.Channel().QueueInspect(queue.ExtractQueueName)
	if err != nil {
		t.Fatalf("failed to inspect queue: %v", err)
	}
	if q.Messages != 1 {
		t.Errorf("queue holds %d messages, want 1", q.Messages)
	}
}

func TestIntegration_Consumer_RunsEngine(t *testing.T) {
	conn := setupRabbitMQ(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	engine := extract.NewEngine()
	handler := func(_ context.Context, job *queue.ExtractJob) (*queue.ExtractResult, error) {
		res := engine.Extract(job.CasesText, job.ExpectedOutput)
		return &queue.ExtractResult{
			Strategy:    res.Strategy,
			Cases:       len(res.Cases),
			NeedsReview: res.Cases.ReviewCount(),
		}, nil
	}

	consumer := queue.NewConsumer(conn, handler, queue.ConsumerConfig{Workers: 2, Prefetch: 1})
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("consumer Start() error = %v", err)
	}
	defer consumer.Stop()

	results := queue.NewResultConsumer(conn)
	tracker := queue.NewTracker()
	results.OnAny(tracker.Record)

	var mu sync.Mutex
	received := make(map[uuid.UUID]*queue.ExtractResult)
	done := make(chan struct{}, 3)

	producer := queue.NewProducer(conn)
	texts := []string{
		"输入：1 2\n输出：3",
		`[{"input":"1","output":"1"},{"input":"2","output":"4"}]`,
		"测试用例1:\n输入：5\n输出：25",
	}
	jobs := make([]*queue.ExtractJob, len(texts))
	for i, text := range texts {
		jobs[i] = queue.NewExtractJob("job", text, "")
		tracker.Track(jobs[i])
		results.Subscribe(jobs[i].ID.String(), func(r *queue.ExtractResult) {
			mu.Lock()
			received[r.JobID] = r
			mu.Unlock()
			done <- struct{}{}
		})
	}

	if err := results.Start(ctx); err != nil {
		t.Fatalf("result consumer Start() error = %v", err)
	}
	defer results.Stop()

	for _, job := range jobs {
		if err := producer.PublishExtractJob(ctx, job); err != nil {
			t.Fatalf("PublishExtractJob() error = %v", err)
		}
	}

	for range jobs {
		select {
		case <-done:
		case <-ctx.Done():
			t.Fatal("timeout waiting for results")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	wantStrategy := []string{extract.StrategySmart, extract.StrategyJSON, extract.StrategyStructured}
	for i, job := range jobs {
		r, ok := received[job.ID]
		if !ok {
			t.Errorf("no result for job %d", i)
			continue
		}
		if r.Status != queue.StatusCompleted {
			t.Errorf("job %d status = %q, want completed", i, r.Status)
		}
		if r.Strategy != wantStrategy[i] {
			t.Errorf("job %d strategy = %q, want %q", i, r.Strategy, wantStrategy[i])
		}
	}
}

func TestIntegration_Consumer_HandlerError(t *testing.T) {
	conn := setupRabbitMQ(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	handler := func(context.Context, *queue.ExtractJob) (*queue.ExtractResult, error) {
		return nil, errors.New("store unavailable")
	}
	consumer := queue.NewConsumer(conn, handler, queue.DefaultConsumerConfig())
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("consumer Start() error = %v", err)
	}
	defer consumer.Stop()

	job := queue.NewExtractJob("broken", "x", "")
	got := make(chan *queue.ExtractResult, 1)
	results := queue.NewResultConsumer(conn)
	results.Subscribe(job.ID.String(), func(r *queue.ExtractResult) { got <- r })
	if err := results.Start(ctx); err != nil {
		t.Fatalf("result consumer Start() error = %v", err)
	}
	defer results.Stop()

	if err := queue.NewProducer(conn).PublishExtractJob(ctx, job); err != nil {
		t.Fatalf("PublishExtractJob() error = %v", err)
	}

	select {
	case r := <-got:
		if r.Status != queue.StatusFailed || r.Error != "store unavailable" {
			t.Errorf("result = %+v, want failed", r)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for failed result")
	}
}
