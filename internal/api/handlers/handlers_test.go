package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/models"
	"github.com/markdave123-py/docsync/internal/services"
)

type stubSync struct {
	gotProvider string
	gotNames    []string
	gotAuto     bool
	err         error
	discovered  *services.DiscoveryResult
	runs        []models.SyncRun
}

func (s *stubSync) ProcessFiles(_ context.Context, provider string, names []string) (*models.SyncRun, error) {
	s.gotProvider, s.gotNames = provider, names
	if s.err != nil {
		return nil, s.err
	}
	return &models.SyncRun{Provider: provider, ProcessedCount: len(names)}, nil
}

func (s *stubSync) Discover(_ context.Context, provider string, auto bool) (*services.DiscoveryResult, error) {
	s.gotProvider, s.gotAuto = provider, auto
	return s.discovered, s.err
}

func (s *stubSync) ScheduledSync(context.Context) ([]*models.SyncRun, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.SyncRun{{Provider: "webdav"}, {Provider: "s3"}}, nil
}

func (s *stubSync) Runs(context.Context, int) ([]models.SyncRun, error) { return s.runs, s.err }

func do(h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestSyncHandler_Process(t *testing.T) {
	t.Run("Should run the listed files", func(t *testing.T) {
		stub := &stubSync{}
		rec := do(NewSyncHandler(stub).Process, http.MethodPost, `{"provider":"webdav","files":["a.pdf"," ","b.txt"]}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "webdav", stub.gotProvider)
		assert.Equal(t, []string{"a.pdf", "b.txt"}, stub.gotNames)
		var run models.SyncRun
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
		assert.Equal(t, 2, run.ProcessedCount)
	})

	t.Run("Should require provider and files", func(t *testing.T) {
		rec := do(NewSyncHandler(&stubSync{}).Process, http.MethodPost, `{"provider":"webdav","files":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject malformed JSON", func(t *testing.T) {
		rec := do(NewSyncHandler(&stubSync{}).Process, http.MethodPost, `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should map pipeline errors to status codes", func(t *testing.T) {
		cases := []struct {
			err  error
			want int
		}{
			{fmt.Errorf("%w: missing GEMINI_API_KEY", core.ErrConfiguration), http.StatusServiceUnavailable},
			{fmt.Errorf("%w: \"ftp\"", core.ErrUnknownProvider), http.StatusNotFound},
			{fmt.Errorf("boom"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			rec := do(NewSyncHandler(&stubSync{err: tc.err}).Process, http.MethodPost, `{"provider":"x","files":["a"]}`)
			assert.Equal(t, tc.want, rec.Code, tc.err.Error())
			assert.Contains(t, rec.Body.String(), "error")
		}
	})
}

func TestSyncHandler_Discover(t *testing.T) {
	t.Run("Should answer 202 when processing was queued", func(t *testing.T) {
		stub := &stubSync{discovered: &services.DiscoveryResult{Provider: "s3", Discovered: 3, Enqueued: true}}
		rec := do(NewSyncHandler(stub).Discover, http.MethodPost, `{"provider":"s3","auto":true}`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.True(t, stub.gotAuto)
		assert.Contains(t, rec.Body.String(), `"discovered":3`)
	})

	t.Run("Should answer 200 for a plain discovery", func(t *testing.T) {
		stub := &stubSync{discovered: &services.DiscoveryResult{Provider: "s3"}}
		rec := do(NewSyncHandler(stub).Discover, http.MethodPost, `{"provider":"s3"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, stub.gotAuto)
	})

	t.Run("Should surface a failed listing as a bad gateway", func(t *testing.T) {
		stub := &stubSync{err: fmt.Errorf("list s3: %w", core.ErrProviderUnavailable)}
		rec := do(NewSyncHandler(stub).Discover, http.MethodPost, `{"provider":"s3"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestSyncHandler_CronAndRuns(t *testing.T) {
	rec := do(NewSyncHandler(&stubSync{}).Cron, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs []models.SyncRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Runs, 2)

	rec = do(NewSyncHandler(&stubSync{runs: []models.SyncRun{{ID: "r1"}}}).Runs, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"r1"`)
}

type stubDocs struct {
	docs        []models.Document
	hits        []models.SearchHit
	gotLimit    int
	gotTrusted  bool
	gotQuery    string
	searchError error
}

func (s *stubDocs) List(_ context.Context, limit int) ([]models.Document, error) {
	s.gotLimit = limit
	return s.docs, nil
}

func (s *stubDocs) Search(_ context.Context, q string, limit int, trusted bool) ([]models.SearchHit, error) {
	s.gotQuery, s.gotLimit, s.gotTrusted = q, limit, trusted
	return s.hits, s.searchError
}

func TestDocumentHandler(t *testing.T) {
	t.Run("Should list an empty catalogue as an array", func(t *testing.T) {
		rec := do(NewDocumentHandler(&stubDocs{}).GetDocuments, http.MethodGet, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("Should pass search options through", func(t *testing.T) {
		stub := &stubDocs{hits: []models.SearchHit{{DocumentName: "a.pdf", Content: "text"}}}
		rec := do(NewDocumentHandler(stub).Search, http.MethodPost, `{"query":"pensione","limit":3,"trusted_only":true}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pensione", stub.gotQuery)
		assert.Equal(t, 3, stub.gotLimit)
		assert.True(t, stub.gotTrusted)
		assert.Contains(t, rec.Body.String(), `"document_name":"a.pdf"`)
	})

	t.Run("Should require a query", func(t *testing.T) {
		rec := do(NewDocumentHandler(&stubDocs{}).Search, http.MethodPost, `{"limit":3}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
