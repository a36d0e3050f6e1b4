// Package testutil holds in-memory collaborators shared by package tests.
package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/markdave123-py/docsync/internal/logger"
)

// NewTestContext returns t.Context() carrying a logger that writes nowhere.
func NewTestContext(t *testing.T) context.Context {
	t.Helper()
	return logger.ContextWithLogger(t.Context(), logger.New(io.Discard, "debug", false))
}
