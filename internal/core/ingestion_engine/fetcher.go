package ingestion_engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/core/providers"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// ContentFetcher wraps a provider's Fetch. It never returns an error: any
// failure turns into synthetic content flagged as a fallback.
type ContentFetcher struct {
	maxBytes int64
}

func NewContentFetcher(maxBytes int64) *ContentFetcher {
	return &ContentFetcher{maxBytes: maxBytes}
}

func (f *ContentFetcher) Fetch(ctx context.Context, p core.Provider, ref models.DocumentRef) models.FetchResult {
	log := logger.FromContext(ctx).With("provider", p.Name(), "document", ref.Name)

	data, err := p.Fetch(ctx, ref)
	if err == nil {
		err = f.check(ref, data)
	}
	if err != nil {
		log.Warn("fetch failed, using generated content", "err", err)
		return models.FetchResult{
			Fallback:    true,
			Text:        SyntheticText(ref.Name),
			ContentType: "text/plain",
			FetchError:  err.Error(),
		}
	}

	ct := mimetype.Detect(data).String()
	log.Debug("fetched", "bytes", len(data), "detected", ct)
	return models.FetchResult{Data: data, Size: int64(len(data)), ContentType: ct}
}

// check applies the ceiling again, whatever the adapter did, and rejects an
// HTML page served in place of a binary document.
func (f *ContentFetcher) check(ref models.DocumentRef, data []byte) error {
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return fmt.Errorf("%w: %d > %d bytes", core.ErrSizeExceeded, len(data), f.maxBytes)
	}
	// servers often report binaries as octet-stream, so the extension decides too
	want := providers.ContentHint(ref.Name)
	if !expectsBinary(want) {
		want = ref.ContentHint
	}
	if expectsBinary(want) && mimetype.Detect(data).Is("text/html") {
		return fmt.Errorf("%w: html page instead of %s", core.ErrUnexpectedContent, want)
	}
	return nil
}

func expectsBinary(hint string) bool {
	switch {
	case hint == "application/pdf", hint == "application/msword":
		return true
	case strings.HasPrefix(hint, "application/vnd.openxmlformats"):
		return true
	}
	return false
}
