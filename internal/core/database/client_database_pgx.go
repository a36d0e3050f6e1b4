package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/docsync/internal/config"
	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// DB is the subset of pgxpool.Pool the client uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

type DatabaseClient struct {
	db DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: database client configuration is nil", core.ErrConfiguration)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is empty", core.ErrConfiguration)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid DATABASE_URL: %w", core.ErrConfiguration, err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	logger.FromContext(ctx).Info("connected to postgres")
	return NewWithDB(pool), nil
}

// NewWithDB wraps an existing pool or a test double.
func NewWithDB(db DB) *DatabaseClient {
	return &DatabaseClient{db: db}
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		c.db.Close()
	}
	return nil
}

// Catalogue

const documentColumns = `id, provider, name, title, mime_type, size_bytes, COALESCE(etag, ''), modified_at,
	source_url, generated, chunk_count, status, created_at, updated_at`

func scanDocument(row pgx.Row) (models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.Provider, &d.Name, &d.Title, &d.MimeType, &d.SizeBytes, &d.ETag, &d.ModifiedAt,
		&d.SourceURL, &d.Generated, &d.ChunkCount, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (c *DatabaseClient) ListDocuments(ctx context.Context, provider string) (map[string]models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE provider = $1`
	rows, err := c.db.Query(ctx, q, provider)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.Document)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out[d.Name] = d
	}
	return out, rows.Err()
}

func (c *DatabaseClient) ListAllDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents ORDER BY updated_at DESC LIMIT $1`
	rows, err := c.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpsertDocument inserts or refreshes the catalogue row keyed by
// (provider, name) and returns its id.
func (c *DatabaseClient) UpsertDocument(ctx context.Context, doc *models.Document) (string, error) {
	if doc == nil {
		return "", errors.New("nil document")
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	const q = `
		INSERT INTO documents
			(id, provider, name, title, mime_type, size_bytes, etag, modified_at, source_url, generated, status)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10, $11)
		ON CONFLICT (provider, name) DO UPDATE SET
			title = EXCLUDED.title,
			mime_type = EXCLUDED.mime_type,
			size_bytes = EXCLUDED.size_bytes,
			etag = EXCLUDED.etag,
			modified_at = EXCLUDED.modified_at,
			source_url = EXCLUDED.source_url,
			generated = EXCLUDED.generated,
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING id
	`
	var id string
	err := c.db.QueryRow(ctx, q,
		doc.ID, doc.Provider, doc.Name, doc.Title, doc.MimeType, doc.SizeBytes, doc.ETag, doc.ModifiedAt,
		doc.SourceURL, doc.Generated, doc.Status,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert document %s/%s: %w", doc.Provider, doc.Name, err)
	}
	doc.ID = id
	return id, nil
}

func (c *DatabaseClient) UpdateDocumentResult(ctx context.Context, id, status string, chunkCount int, generated bool) error {
	const q = `
		UPDATE documents
		SET status = $2, chunk_count = $3, generated = $4, updated_at = now()
		WHERE id = $1
	`
	tag, err := c.db.Exec(ctx, q, id, status, chunkCount, generated)
	if err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// Chunks

func (c *DatabaseClient) DeleteChunksByDocument(ctx context.Context, documentID string) (int64, error) {
	tag, err := c.db.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete chunks of %s: %w", documentID, err)
	}
	return tag.RowsAffected(), nil
}

func (c *DatabaseClient) InsertChunk(ctx context.Context, ch *models.StoredChunk) error {
	if ch == nil {
		return errors.New("nil chunk")
	}
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	meta, err := json.Marshal(ch.Metadata)
	if err != nil {
		return fmt.Errorf("marshal chunk metadata: %w", err)
	}
	const q = `
		INSERT INTO chunks
			(id, document_id, chunk_index, content, chapter_title, section_title, page_number, embedding, metadata)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
	`
	_, err = c.db.Exec(ctx, q,
		ch.ID, ch.DocumentID, ch.PositionIndex, ch.Content, ch.ChapterTitle, ch.SectionTitle, ch.PageNumber,
		pgvector.NewVector(ch.Embedding), meta,
	)
	if err != nil {
		return fmt.Errorf("%w: insert chunk %d: %w", core.ErrStoreWrite, ch.PositionIndex, err)
	}
	return nil
}

func (c *DatabaseClient) CountChunksByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := c.db.QueryRow(ctx, `SELECT count(*) FROM chunks WHERE document_id = $1`, documentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks of %s: %w", documentID, err)
	}
	return n, nil
}

// SearchChunks returns the nearest chunks by cosine distance. trustedOnly
// leaves out documents whose content was generated.
func (c *DatabaseClient) SearchChunks(ctx context.Context, queryVec []float32, limit int, trustedOnly bool) ([]models.SearchHit, error) {
	const q = `
		SELECT c.document_id, d.name, d.title, d.source_url, c.content, c.page_number,
			COALESCE(c.chapter_title, ''), d.generated, c.embedding <=> $1 AS distance, c.metadata
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE NOT ($2 AND d.generated)
		ORDER BY distance
		LIMIT $3
	`
	rows, err := c.db.Query(ctx, q, pgvector.NewVector(queryVec), trustedOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer rows.Close()

	var out []models.SearchHit
	for rows.Next() {
		var (
			h    models.SearchHit
			meta []byte
		)
		if err := rows.Scan(&h.DocumentID, &h.DocumentName, &h.Title, &h.SourceURL, &h.Content, &h.PageNumber,
			&h.ChapterTitle, &h.Generated, &h.Distance, &meta); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &h.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Sync runs

func (c *DatabaseClient) RecordSyncRun(ctx context.Context, run *models.SyncRun) error {
	if run == nil {
		return errors.New("nil sync run")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	errs, err := json.Marshal(nonNil(run.Errors))
	if err != nil {
		return fmt.Errorf("marshal run errors: %w", err)
	}
	outcomes, err := json.Marshal(nonNil(run.Outcomes))
	if err != nil {
		return fmt.Errorf("marshal run outcomes: %w", err)
	}
	const q = `
		INSERT INTO sync_runs
			(id, provider, triggered_by, started_at, finished_at, discovered_count, new_count,
			 processed_count, failed_count, chunks_saved, errors, outcomes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = c.db.Exec(ctx, q,
		run.ID, run.Provider, run.TriggeredBy, run.StartedAt, run.FinishedAt, run.DiscoveredCount, run.NewCount,
		run.ProcessedCount, run.FailedCount, run.ChunksSaved, errs, outcomes,
	)
	if err != nil {
		return fmt.Errorf("%w: record sync run: %w", core.ErrStoreWrite, err)
	}
	return nil
}

func (c *DatabaseClient) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	const q = `
		SELECT id, provider, triggered_by, started_at, finished_at, discovered_count, new_count,
			processed_count, failed_count, chunks_saved, errors, outcomes
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1
	`
	rows, err := c.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var out []models.SyncRun
	for rows.Next() {
		var (
			r              models.SyncRun
			errs, outcomes []byte
		)
		if err := rows.Scan(&r.ID, &r.Provider, &r.TriggeredBy, &r.StartedAt, &r.FinishedAt, &r.DiscoveredCount,
			&r.NewCount, &r.ProcessedCount, &r.FailedCount, &r.ChunksSaved, &errs, &outcomes); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		if err := json.Unmarshal(errs, &r.Errors); err != nil {
			return nil, fmt.Errorf("decode run errors: %w", err)
		}
		if err := json.Unmarshal(outcomes, &r.Outcomes); err != nil {
			return nil, fmt.Errorf("decode run outcomes: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
