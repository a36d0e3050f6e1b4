package core

import (
	"context"

	"github.com/markdave123-py/docsync/internal/models"
)

// DocumentExtractor converts raw bytes into plain text. Implementations never
// fail: when the real text cannot be read they return generated content with
// Generated set.
type DocumentExtractor interface {
	Extract(ctx context.Context, name, contentHint string, data []byte) models.ExtractedText
}
