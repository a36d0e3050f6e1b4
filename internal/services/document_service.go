package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/models"
)

// QueryEmbedder embeds a search query.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

const (
	defaultListLimit   = 100
	defaultSearchLimit = 5
	maxSearchLimit     = 50
)

type DocumentService struct {
	db       core.DbClient
	embedder QueryEmbedder
}

func NewDocumentService(db core.DbClient, embedder QueryEmbedder) *DocumentService {
	return &DocumentService{db: db, embedder: embedder}
}

// List returns catalogue rows, most recently updated first.
func (s *DocumentService) List(ctx context.Context, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.db.ListAllDocuments(ctx, limit)
}

// Search embeds query and returns the nearest chunks. trustedOnly leaves out
// generated content.
func (s *DocumentService) Search(ctx context.Context, query string, limit int, trustedOnly bool) ([]models.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.db.SearchChunks(ctx, vec, limit, trustedOnly)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []models.SearchHit{}
	}
	return hits, nil
}
