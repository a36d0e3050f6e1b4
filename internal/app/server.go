package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/docsync/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/docsync/internal/api/middlewares"
	"github.com/markdave123-py/docsync/internal/config"
	"github.com/markdave123-py/docsync/internal/logger"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, syncHandler *handlers.SyncHandler, docHandler *handlers.DocumentHandler) *Server {
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, syncHandler, docHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv}
}

// NewRouter registers the trigger, catalogue and search endpoints.
func NewRouter(cfg *config.Config, syncHandler *handlers.SyncHandler, docHandler *handlers.DocumentHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", appMiddleware.CronSecretHeader},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		// sync runs can take minutes; only the read endpoints get a deadline
		api.Group(func(read chi.Router) {
			read.Use(middleware.Timeout(60 * time.Second))
			read.Get("/documents", docHandler.GetDocuments)
			read.Post("/search", docHandler.Search)
			read.Get("/sync/runs", syncHandler.Runs)
		})

		api.Post("/sync/process", syncHandler.Process)
		api.Post("/sync/discover", syncHandler.Discover)

		api.Group(func(cron chi.Router) {
			cron.Use(appMiddleware.CronSecret(cfg.CronSecret))
			cron.Get("/sync/cron", syncHandler.Cron)
			cron.Post("/sync/cron", syncHandler.Cron)
		})
	})

	return r
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	logger.Default().Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Default().Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
