package ingestion_engine

import (
	"context"
	"time"

	"github.com/markdave123-py/docsync/internal/config"
)

// IngestConfig tunes the per-document pipeline.
//
// ChunkWords:        words per chunk window (e.g., 1000).
// ChunkOverlapWords: words repeated between consecutive windows of a section (e.g., 200).
// MinChunkChars:     windows whose text is shorter than this are dropped.
// MinSectionChars:   sections shorter than this are dropped before windowing.
// MinExtractedChars: below this, PDF/DOCX/HTML extraction counts as weak signal.
// CharsPerPage:      divisor for the page estimate. Not real pagination.
// MaxEmbedChars:     chunk text is cut to this many characters before embedding.
// MaxFetchBytes:     payload ceiling for a single document.
// EmbedDim:          expected vector dimension; mismatches are rejected.
// ChunkDelay:        pause between per-chunk embedding calls.
type IngestConfig struct {
	ChunkWords        int
	ChunkOverlapWords int
	MinChunkChars     int
	MinSectionChars   int
	MinExtractedChars int
	CharsPerPage      int
	MaxEmbedChars     int
	MaxFetchBytes     int64
	EmbedDim          int
	ChunkDelay        time.Duration
}

// NewIngestConfig copies the pipeline knobs out of the service config.
func NewIngestConfig(c *config.Config) *IngestConfig {
	return &IngestConfig{
		ChunkWords:        c.ChunkWords,
		ChunkOverlapWords: c.ChunkOverlapWords,
		MinChunkChars:     c.MinChunkChars,
		MinSectionChars:   c.MinSectionChars,
		MinExtractedChars: c.MinExtractedChars,
		CharsPerPage:      c.CharsPerPage,
		MaxEmbedChars:     c.MaxEmbedChars,
		MaxFetchBytes:     c.MaxFetchBytes,
		EmbedDim:          c.EmbedDim,
		ChunkDelay:        c.ChunkDelay,
	}
}

// DefaultIngestConfig returns the stock tuning, mostly for tests.
func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{
		ChunkWords:        1000,
		ChunkOverlapWords: 200,
		MinChunkChars:     100,
		MinSectionChars:   100,
		MinExtractedChars: 100,
		CharsPerPage:      2000,
		MaxEmbedChars:     8000,
		MaxFetchBytes:     10 << 20,
		EmbedDim:          768,
	}
}

// pause waits d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
