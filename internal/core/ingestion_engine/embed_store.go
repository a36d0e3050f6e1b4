package ingestion_engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/markdave123-py/docsync/internal/core"
	objectclient "github.com/markdave123-py/docsync/internal/core/object-client"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// WriteResult reports how many chunks of one document reached the store.
// ChunkErrors holds the per-chunk failures that were skipped.
type WriteResult struct {
	DocumentID  string
	Attempted   int
	Saved       int
	ChunkErrors []error
}

// StoreWriter embeds chunks one at a time and replaces the stored chunk set
// of a document.
type StoreWriter struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	obj      core.ObjectClient
	cfg      *IngestConfig
}

// NewStoreWriter builds a writer. obj may be nil when no bucket is
// configured; snapshots are then skipped.
func NewStoreWriter(db core.DbClient, emb core.EmbeddingProvider, obj core.ObjectClient, cfg *IngestConfig) *StoreWriter {
	return &StoreWriter{db: db, embedder: emb, obj: obj, cfg: cfg}
}

// Write upserts the catalogue row, deletes the previous chunks and inserts
// the new ones. A failing chunk is logged and skipped. Only catalogue or
// delete failures return an error.
func (w *StoreWriter) Write(ctx context.Context, ref models.DocumentRef, ext models.ExtractedText, chunks []models.Chunk) (WriteResult, error) {
	log := logger.FromContext(ctx).With("provider", ref.Provider, "document", ref.Name)

	doc := &models.Document{
		Provider:   ref.Provider,
		Name:       ref.Name,
		Title:      documentTitle(ref.Name),
		MimeType:   ref.ContentHint,
		SizeBytes:  ref.SizeBytes,
		ETag:       ref.ETag,
		ModifiedAt: ref.LastModified,
		SourceURL:  SourceURL(ref),
		Generated:  ext.Generated,
		Status:     models.StatusProcessing,
	}
	docID, err := w.db.UpsertDocument(ctx, doc)
	if err != nil {
		return WriteResult{}, fmt.Errorf("%w: upsert document: %w", core.ErrStoreWrite, err)
	}
	res := WriteResult{DocumentID: docID, Attempted: len(chunks)}

	removed, err := w.db.DeleteChunksByDocument(ctx, docID)
	if err != nil {
		_ = w.db.UpdateDocumentResult(ctx, docID, models.StatusFailed, 0, ext.Generated)
		return res, fmt.Errorf("%w: delete previous chunks: %w", core.ErrStoreWrite, err)
	}
	if removed > 0 {
		log.Debug("replaced previous chunks", "removed", removed)
	}

	for i, ch := range chunks {
		if i > 0 {
			if err := pause(ctx, w.cfg.ChunkDelay); err != nil {
				return res, err
			}
		}
		if err := w.writeChunk(ctx, docID, ref, ch); err != nil {
			log.Error("chunk skipped", "position", ch.PositionIndex, "err", err)
			res.ChunkErrors = append(res.ChunkErrors, err)
			continue
		}
		res.Saved++
	}

	status := models.StatusReady
	if res.Attempted > 0 && res.Saved == 0 {
		status = models.StatusFailed
	}
	if err := w.db.UpdateDocumentResult(ctx, docID, status, res.Saved, ext.Generated); err != nil {
		log.Error("document status not updated", "err", err)
	}

	if status == models.StatusReady && !ext.Generated {
		w.snapshot(ctx, ref, ext.Text)
	}
	return res, nil
}

func (w *StoreWriter) writeChunk(ctx context.Context, docID string, ref models.DocumentRef, ch models.Chunk) error {
	vecs, err := w.embedder.EmbedTexts(ctx, []string{truncateRunes(ch.Content, w.cfg.MaxEmbedChars)})
	if err != nil {
		if errors.Is(err, core.ErrEmbeddingProvider) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrEmbeddingProvider, err)
	}
	if len(vecs) != 1 {
		return fmt.Errorf("%w: got %d vectors for one text", core.ErrEmbeddingProvider, len(vecs))
	}
	if w.cfg.EmbedDim > 0 && len(vecs[0]) != w.cfg.EmbedDim {
		return fmt.Errorf("%w: dimension %d, want %d", core.ErrEmbeddingProvider, len(vecs[0]), w.cfg.EmbedDim)
	}

	meta := make(map[string]any, len(ch.Metadata)+3)
	for k, v := range ch.Metadata {
		meta[k] = v
	}
	meta["provider"] = ref.Provider
	meta["document_title"] = documentTitle(ref.Name)
	meta["source_url"] = SourceURL(ref)
	ch.Metadata = meta

	row := &models.StoredChunk{DocumentID: docID, Chunk: ch, Embedding: vecs[0]}
	if err := w.db.InsertChunk(ctx, row); err != nil {
		if errors.Is(err, core.ErrStoreWrite) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrStoreWrite, err)
	}
	return nil
}

// snapshot uploads the extracted text next to the bucket's documents. It is
// best effort; a failed upload never fails the document.
func (w *StoreWriter) snapshot(ctx context.Context, ref models.DocumentRef, text string) {
	if w.obj == nil || text == "" {
		return
	}
	key := objectclient.SnapshotKey(ref.Provider, ref.Name)
	if _, err := w.obj.UploadFile(ctx, key, []byte(text), "text/plain; charset=utf-8"); err != nil {
		logger.FromContext(ctx).Warn("snapshot upload failed", "document", ref.Name, "key", key, "err", err)
	}
}

// SourceURL is the synthetic locator stored with every chunk.
func SourceURL(ref models.DocumentRef) string {
	return ref.Provider + "://" + ref.Name
}

func truncateRunes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
