package ingestion_engine

import (
	"context"
	"fmt"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// Pipeline runs fetch, extract, chunk and store for one document.
type Pipeline struct {
	fetcher   *ContentFetcher
	extractor core.DocumentExtractor
	chunker   *Chunker
	writer    *StoreWriter
	cfg       *IngestConfig
}

// NewPipeline wires the stages from one IngestConfig.
func NewPipeline(db core.DbClient, obj core.ObjectClient, emb core.EmbeddingProvider, extractor core.DocumentExtractor, cfg *IngestConfig) *Pipeline {
	return &Pipeline{
		fetcher:   NewContentFetcher(cfg.MaxFetchBytes),
		extractor: extractor,
		chunker:   NewChunker(cfg),
		writer:    NewStoreWriter(db, emb, obj, cfg),
		cfg:       cfg,
	}
}

// Process never returns an error: every failure ends up in the outcome.
// Fetch and extraction problems are not failures at all; they produce
// generated content.
func (p *Pipeline) Process(ctx context.Context, prov core.Provider, ref models.DocumentRef) models.DocumentOutcome {
	log := logger.FromContext(ctx).With("provider", prov.Name(), "document", ref.Name)
	out := models.DocumentOutcome{Document: ref.Name}

	fetched := p.fetcher.Fetch(ctx, prov, ref)

	var ext models.ExtractedText
	if fetched.Fallback {
		ext = models.ExtractedText{
			Text:            fetched.Text,
			PageEstimate:    estimatePages(fetched.Text, p.cfg.CharsPerPage),
			Generated:       true,
			ExtractionError: fetched.FetchError,
		}
	} else {
		ext = p.extractor.Extract(ctx, ref.Name, ref.ContentHint, fetched.Data)
	}
	out.Generated = ext.Generated

	chunks := p.chunker.Chunk(ref.Name, ext)
	log.Debug("chunked", "chunks", len(chunks), "pages", ext.PageEstimate, "generated", ext.Generated)

	res, err := p.writer.Write(ctx, ref, ext, chunks)
	out.ChunksSaved = res.Saved
	switch {
	case err != nil:
		out.Reason = err.Error()
	case res.Attempted > 0 && res.Saved == 0:
		out.Reason = fmt.Sprintf("none of %d chunks stored: %v", res.Attempted, res.ChunkErrors[0])
	default:
		out.Success = true
	}

	if out.Success {
		log.Info("document processed", "chunks_saved", res.Saved, "chunks_skipped", len(res.ChunkErrors))
	} else {
		log.Error("document failed", "reason", out.Reason)
	}
	return out
}
