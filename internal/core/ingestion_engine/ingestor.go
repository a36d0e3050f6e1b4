package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/logger"
)

// JobHandler processes one queued job.
type JobHandler func(ctx context.Context, job core.ProcessJob)

// DocumentIngestor is the in-memory async handoff between discovery and
// processing: a bounded queue drained by a single worker.
type DocumentIngestor struct {
	jobs chan core.ProcessJob
}

var _ core.JobQueue = (*DocumentIngestor)(nil)

// NewDocumentIngestor constructs the ingestor with a bounded job queue.
func NewDocumentIngestor(size int) *DocumentIngestor {
	if size <= 0 {
		size = 16
	}
	return &DocumentIngestor{jobs: make(chan core.ProcessJob, size)}
}

// Enqueue schedules a job without blocking. A full queue returns
// core.ErrQueueFull so the caller can report it.
func (i *DocumentIngestor) Enqueue(job core.ProcessJob) error {
	select {
	case i.jobs <- job:
		return nil
	default:
		return core.ErrQueueFull
	}
}

// Run drains the queue with one worker until ctx is cancelled. Jobs are
// handled one after another, never in parallel.
func (i *DocumentIngestor) Run(ctx context.Context, handle JobHandler) error {
	log := logger.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("DocumentIngestor: worker shutting down")
			return nil
		case job := <-i.jobs:
			log.Info("DocumentIngestor: processing job", "provider", job.Provider, "documents", len(job.Refs), "trigger", job.TriggeredBy)
			handle(ctx, job)
		}
	}
}

// Pending reports how many jobs are waiting.
func (i *DocumentIngestor) Pending() int { return len(i.jobs) }
