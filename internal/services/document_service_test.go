package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ie "github.com/markdave123-py/docsync/internal/core/ingestion_engine"
	"github.com/markdave123-py/docsync/internal/testutil"
)

type queryEmbedder struct {
	dim int
	err error
}

func (q queryEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if q.err != nil {
		return nil, q.err
	}
	return make([]float32, q.dim), nil
}

func TestDocumentService_Search(t *testing.T) {
	ctx := testutil.NewTestContext(t)

	plain := testutil.NewFakeProvider("webdav").Add("regolamento.txt", words(120, "r"))
	fallback := testutil.NewFakeProvider("folderapi").AddFailing("manuale_disciplina.pdf", errors.New("timeout"))
	env := newSyncEnv(testConfig(), plain, fallback)
	_, err := env.svc.ScheduledSync(ctx)
	require.NoError(t, err)

	svc := NewDocumentService(env.store, queryEmbedder{dim: ie.DefaultIngestConfig().EmbedDim})

	t.Run("Should reject an empty query", func(t *testing.T) {
		_, err := svc.Search(ctx, "   ", 5, false)
		assert.Error(t, err)
	})

	t.Run("Should return generated content unless trusted only", func(t *testing.T) {
		all, err := svc.Search(ctx, "disciplinary rules", 50, false)
		require.NoError(t, err)
		trusted, err := svc.Search(ctx, "disciplinary rules", 50, true)
		require.NoError(t, err)

		assert.Greater(t, len(all), len(trusted))
		require.NotEmpty(t, trusted)
		for _, h := range trusted {
			assert.False(t, h.Generated)
			assert.Equal(t, "regolamento.txt", h.DocumentName)
		}
	})

	t.Run("Should apply the default limit", func(t *testing.T) {
		hits, err := svc.Search(ctx, "anything", 0, false)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(hits), defaultSearchLimit)
	})

	t.Run("Should propagate embedding errors", func(t *testing.T) {
		bad := NewDocumentService(env.store, queryEmbedder{err: errors.New("quota")})
		_, err := bad.Search(ctx, "q", 5, false)
		assert.EqualError(t, err, "quota")
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := testutil.NewTestContext(t)
	prov := testutil.NewFakeProvider("webdav").Add("a.txt", words(60, "a")).Add("b.txt", words(60, "b"))
	env := newSyncEnv(testConfig(), prov)
	_, err := env.svc.ScheduledSync(ctx)
	require.NoError(t, err)

	docs, err := NewDocumentService(env.store, queryEmbedder{}).List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "ready", docs[0].Status)
}
