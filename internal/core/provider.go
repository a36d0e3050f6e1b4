package core

import (
	"context"

	"github.com/markdave123-py/docsync/internal/models"
)

// Provider is a remote storage source. List is read-only and returns only
// documents whose extension is on the allow-list; Fetch returns the full
// payload or an error, never a truncated read.
type Provider interface {
	Name() string
	List(ctx context.Context) ([]models.DocumentRef, error)
	Fetch(ctx context.Context, ref models.DocumentRef) ([]byte, error)
}

// Lister is a single discovery strategy. Providers with several ways of
// finding documents compose Listers into an ordered fallback chain.
type Lister interface {
	Name() string
	List(ctx context.Context) ([]models.DocumentRef, error)
}

// ProcessJob is an asynchronous request to process a set of documents.
type ProcessJob struct {
	Provider    string
	Refs        []models.DocumentRef
	TriggeredBy string
}

// JobQueue accepts asynchronous processing work.
type JobQueue interface {
	Enqueue(job ProcessJob) error
}
