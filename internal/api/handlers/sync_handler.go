package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/markdave123-py/docsync/internal/models"
	"github.com/markdave123-py/docsync/internal/services"
)

// SyncRunner is the orchestrator surface the trigger endpoints drive.
type SyncRunner interface {
	ProcessFiles(ctx context.Context, provider string, names []string) (*models.SyncRun, error)
	Discover(ctx context.Context, provider string, auto bool) (*services.DiscoveryResult, error)
	ScheduledSync(ctx context.Context) ([]*models.SyncRun, error)
	Runs(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type SyncHandler struct {
	sync SyncRunner
}

func NewSyncHandler(sync SyncRunner) *SyncHandler {
	return &SyncHandler{sync: sync}
}

type processRequest struct {
	Provider string   `json:"provider"`
	Files    []string `json:"files"`
}

type discoverRequest struct {
	Provider string `json:"provider"`
	Auto     bool   `json:"auto"`
}

// Process runs an explicit file list synchronously and returns the run.
func (h *SyncHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !decode(w, r, &req) {
		return
	}
	var names []string
	for _, f := range req.Files {
		if f = strings.TrimSpace(f); f != "" {
			names = append(names, f)
		}
	}
	if req.Provider == "" || len(names) == 0 {
		http.Error(w, "provider and files are required", http.StatusBadRequest)
		return
	}

	run, err := h.sync.ProcessFiles(r.Context(), req.Provider, names)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

func (h *SyncHandler) Discover(w http.ResponseWriter, r *http.Request) {
	var req discoverRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Provider == "" {
		http.Error(w, "provider is required", http.StatusBadRequest)
		return
	}

	res, err := h.sync.Discover(r.Context(), req.Provider, req.Auto)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Enqueued {
		status = http.StatusAccepted
	}
	writeJSON(w, r, status, res)
}

// Cron is the scheduled trigger: discovery then processing for every provider.
func (h *SyncHandler) Cron(w http.ResponseWriter, r *http.Request) {
	runs, err := h.sync.ScheduledSync(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*models.SyncRun{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"runs": runs})
}

func (h *SyncHandler) Runs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	runs, err := h.sync.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, runs)
}
