// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/docsync/internal/api/handlers"
	"github.com/markdave123-py/docsync/internal/config"
	"github.com/markdave123-py/docsync/internal/core"
	db "github.com/markdave123-py/docsync/internal/core/database"
	"github.com/markdave123-py/docsync/internal/core/ingestion_engine"
	"github.com/markdave123-py/docsync/internal/core/llm"
	objectclient "github.com/markdave123-py/docsync/internal/core/object-client"
	"github.com/markdave123-py/docsync/internal/core/providers"
	"github.com/markdave123-py/docsync/internal/core/providers/folderapi"
	"github.com/markdave123-py/docsync/internal/core/providers/sharepage"
	"github.com/markdave123-py/docsync/internal/core/providers/webdav"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/services"
)

type App struct {
	DBClient  *db.DatabaseClient
	Embedder  *llm.GeminiEmbedder
	Ingestor  *ingestion_engine.DocumentIngestor
	Sync      *services.SyncService
	Scheduler *services.Scheduler
	Server    *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL not set", core.ErrConfiguration)
	}
	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready")

	embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
	if err != nil {
		dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	var (
		snapshots core.ObjectClient
		bucket    *objectclient.S3Client
	)
	if cfg.HasBucket() {
		bucket, err = objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			log.Warn("object storage disabled", "err", err)
		} else {
			snapshots = bucket
			log.Info("object client initialized and ready", "bucket", cfg.BucketName)
		}
	}

	registry := providers.NewRegistry(buildProviders(ctx, cfg, bucket)...)
	if len(registry.Names()) == 0 {
		log.Warn("no storage provider configured; sync requests will fail")
	}

	for ext, bin := range ingestion_engine.MissingConverters() {
		log.Warn("converter not installed; these files will get generated content", "format", ext, "binary", bin)
	}

	ingCfg := ingestion_engine.NewIngestConfig(cfg)
	extractor := ingestion_engine.NewDocconvExtractor(false, ingCfg)
	pipeline := ingestion_engine.NewPipeline(dbClient, snapshots, embedder, extractor, ingCfg)
	ingestor := ingestion_engine.NewDocumentIngestor(cfg.QueueSize)

	syncSvc := services.NewSyncService(registry, dbClient, pipeline, ingestor, cfg)
	scheduler, err := services.NewScheduler(cfg.SyncSchedule, syncSvc)
	if err != nil {
		embedder.Close()
		dbClient.Close()
		return nil, err
	}

	server := NewServer(cfg,
		handlers.NewSyncHandler(syncSvc),
		handlers.NewDocumentHandler(services.NewDocumentService(dbClient, embedder)),
	)

	return &App{
		DBClient:  dbClient,
		Embedder:  embedder,
		Ingestor:  ingestor,
		Sync:      syncSvc,
		Scheduler: scheduler,
		Server:    server,
	}, nil
}

// buildProviders wires every configured source. Listing falls back to the
// configured seed names for sources that can locate a file by name.
func buildProviders(ctx context.Context, cfg *config.Config, bucket *objectclient.S3Client) []core.Provider {
	log := logger.FromContext(ctx)
	var out []core.Provider

	if cfg.FolderAPICode != "" {
		c, err := folderapi.NewClient(cfg.FolderAPIURL, cfg.FolderAPICode, cfg.AllowedExtensions, cfg.MaxFetchBytes, cfg.HTTPTimeout)
		if err != nil {
			log.Warn("provider disabled", "provider", folderapi.ProviderName, "err", err)
		} else {
			// file ids cannot be derived from names, so no seed fallback here
			out = append(out, c)
		}
	}
	if cfg.WebDAVURL != "" {
		c, err := webdav.NewClient(cfg.WebDAVURL, cfg.WebDAVUser, cfg.WebDAVPassword, cfg.WebDAVRoot,
			cfg.AllowedExtensions, cfg.MaxFetchBytes, cfg.HTTPTimeout)
		if err != nil {
			log.Warn("provider disabled", "provider", webdav.ProviderName, "err", err)
		} else {
			out = append(out, withSeeds(c, cfg, c.Locate))
		}
	}
	if cfg.SharePageURL != "" {
		s, err := sharepage.NewScraper(cfg.SharePageURL, cfg.AllowedExtensions, cfg.MaxFetchBytes, cfg.HTTPTimeout)
		if err != nil {
			log.Warn("provider disabled", "provider", sharepage.ProviderName, "err", err)
		} else {
			out = append(out, withSeeds(s, cfg, s.Locate))
		}
	}
	if bucket != nil {
		out = append(out, withSeeds(bucket, cfg, bucket.Locate))
	}
	return out
}

func withSeeds(p core.Provider, cfg *config.Config, locate func(string) string) core.Provider {
	if len(cfg.SeedFiles) == 0 {
		return p
	}
	return providers.WithFallback(p, providers.NewStatic(p.Name(), cfg.SeedFiles, locate))
}

// Run serves HTTP and runs the scheduler and the queue worker until ctx is
// done or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Server.Start() })
	g.Go(func() error { return a.Scheduler.Start(gctx) })
	g.Go(func() error { return a.Ingestor.Run(gctx, a.Sync.HandleJob) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 30*time.Second)
		defer cancel()
		return a.Server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) Close() {
	if a.Embedder != nil {
		_ = a.Embedder.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
