package core

import (
	"context"

	"github.com/markdave123-py/docsync/internal/models"
)

// DbClient defines the persistence operations the pipeline needs.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	// ListDocuments returns the catalogue for one provider keyed by document name.
	ListDocuments(ctx context.Context, provider string) (map[string]models.Document, error)
	ListAllDocuments(ctx context.Context, limit int) ([]models.Document, error)
	UpsertDocument(ctx context.Context, doc *models.Document) (string, error)
	UpdateDocumentResult(ctx context.Context, id string, status string, chunkCount int, generated bool) error

	DeleteChunksByDocument(ctx context.Context, documentID string) (int64, error)
	InsertChunk(ctx context.Context, chunk *models.StoredChunk) error
	CountChunksByDocument(ctx context.Context, documentID string) (int, error)
	SearchChunks(ctx context.Context, queryVec []float32, limit int, trustedOnly bool) ([]models.SearchHit, error)

	RecordSyncRun(ctx context.Context, run *models.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
}
