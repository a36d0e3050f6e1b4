package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/models"
)

// MemStore is an in-memory core.DbClient. Setting InsertErr makes every
// InsertChunk fail.
type MemStore struct {
	mu        sync.Mutex
	docs      map[string]*models.Document // by id
	chunks    map[string][]models.StoredChunk
	runs      []models.SyncRun
	InsertErr error
	UpsertErr error
}

var _ core.DbClient = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{docs: map[string]*models.Document{}, chunks: map[string][]models.StoredChunk{}}
}

func (s *MemStore) ListDocuments(_ context.Context, provider string) (map[string]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]models.Document{}
	for _, d := range s.docs {
		if d.Provider == provider {
			out[d.Name] = *d
		}
	}
	return out, nil
}

func (s *MemStore) ListAllDocuments(_ context.Context, limit int) ([]models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) UpsertDocument(_ context.Context, doc *models.Document) (string, error) {
	if s.UpsertErr != nil {
		return "", s.UpsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, d := range s.docs {
		if d.Provider == doc.Provider && d.Name == doc.Name {
			cp := *doc
			cp.ID, cp.CreatedAt, cp.UpdatedAt = id, d.CreatedAt, now
			s.docs[id] = &cp
			return id, nil
		}
	}
	cp := *doc
	cp.ID = uuid.NewString()
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.docs[cp.ID] = &cp
	return cp.ID, nil
}

func (s *MemStore) UpdateDocumentResult(_ context.Context, id, status string, chunkCount int, generated bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return errors.New("document not found")
	}
	d.Status, d.ChunkCount, d.Generated = status, chunkCount, generated
	return nil
}

func (s *MemStore) DeleteChunksByDocument(_ context.Context, documentID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.chunks[documentID]))
	delete(s.chunks, documentID)
	return n, nil
}

func (s *MemStore) InsertChunk(_ context.Context, c *models.StoredChunk) error {
	if s.InsertErr != nil {
		return s.InsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	s.chunks[c.DocumentID] = append(s.chunks[c.DocumentID], cp)
	return nil
}

func (s *MemStore) CountChunksByDocument(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks[id]), nil
}

func (s *MemStore) SearchChunks(_ context.Context, _ []float32, limit int, trustedOnly bool) ([]models.SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SearchHit
	for id, rows := range s.chunks {
		d := s.docs[id]
		if trustedOnly && d.Generated {
			continue
		}
		for _, c := range rows {
			out = append(out, models.SearchHit{
				DocumentID: id, DocumentName: d.Name, Title: d.Title, SourceURL: d.SourceURL,
				Content: c.Content, PageNumber: c.PageNumber, ChapterTitle: c.ChapterTitle,
				Generated: d.Generated, Metadata: c.Metadata,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Content < out[j].Content })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) RecordSyncRun(_ context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

func (s *MemStore) ListSyncRuns(_ context.Context, limit int) ([]models.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SyncRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		out = append(out, s.runs[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) Close() error { return nil }

// Document returns the catalogue row for provider/name.
func (s *MemStore) Document(provider, name string) (models.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.Provider == provider && d.Name == name {
			return *d, true
		}
	}
	return models.Document{}, false
}

// Chunks returns the stored chunks of provider/name in insert order.
func (s *MemStore) Chunks(provider, name string) []models.StoredChunk {
	d, ok := s.Document(provider, name)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StoredChunk(nil), s.chunks[d.ID]...)
}

// Runs returns recorded runs, oldest first.
func (s *MemStore) Runs() []models.SyncRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SyncRun(nil), s.runs...)
}
