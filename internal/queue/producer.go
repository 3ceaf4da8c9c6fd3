package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher is the part of Connection the producer needs
type Publisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

// Producer publishes extraction jobs and their results
type Producer struct {
	conn Publisher
}

// NewProducer creates a producer on top of a connection
func NewProducer(conn Publisher) *Producer {
	return &Producer{conn: conn}
}

// PublishExtractJob queues a job, filling in its ID and timestamp if unset
func (p *Producer) PublishExtractJob(ctx context.Context, job *ExtractJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ExtractQueueName, job); err != nil {
		return fmt.Errorf("publish extract job: %w", err)
	}

	slog.Info("published extract job",
		"job_id", job.ID,
		"title", job.Title,
		"bytes", len(job.CasesText)+len(job.ExpectedOutput),
	)
	return nil
}

// PublishResult publishes a job outcome to the results queue
func (p *Producer) PublishResult(ctx context.Context, result *ExtractResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	if err := p.conn.PublishJSON(ctx, ResultQueueName, result); err != nil {
		return fmt.Errorf("publish extract result: %w", err)
	}

	slog.Info("published extract result",
		"job_id", result.JobID,
		"status", result.Status,
		"duration", result.Duration,
	)
	return nil
}

// NewExtractJob creates a job for the given texts
func NewExtractJob(title, casesText, expectedOutput string) *ExtractJob {
	return &ExtractJob{
		ID:             uuid.New(),
		Title:          title,
		CasesText:      casesText,
		ExpectedOutput: expectedOutput,
		CreatedAt:      time.Now(),
	}
}
