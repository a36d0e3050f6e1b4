package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/markdave123-py/docsync/internal/models"
)

// DocumentReader serves the catalogue and similarity search.
type DocumentReader interface {
	List(ctx context.Context, limit int) ([]models.Document, error)
	Search(ctx context.Context, query string, limit int, trustedOnly bool) ([]models.SearchHit, error)
}

type DocumentHandler struct {
	docs DocumentReader
}

func NewDocumentHandler(docs DocumentReader) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

type searchRequest struct {
	Query       string `json:"query"`
	Limit       int    `json:"limit"`
	TrustedOnly bool   `json:"trusted_only"`
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	documents, err := h.docs.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}
	writeJSON(w, r, http.StatusOK, documents)
}

// Search embeds the query and returns the nearest chunks. trusted_only leaves
// out placeholder content generated for unavailable files.
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	hits, err := h.docs.Search(r.Context(), req.Query, req.Limit, req.TrustedOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"query": req.Query, "results": hits})
}
