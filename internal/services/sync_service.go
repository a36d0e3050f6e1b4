package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/docsync/internal/config"
	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/core/providers"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// DocumentProcessor runs the per-document pipeline. It reports failures in
// the outcome instead of returning them.
type DocumentProcessor interface {
	Process(ctx context.Context, p core.Provider, ref models.DocumentRef) models.DocumentOutcome
}

// DiscoveryResult is what a discovery pass found for one provider.
type DiscoveryResult struct {
	Provider         string               `json:"provider"`
	Discovered       int                  `json:"discovered"`
	New              []models.DocumentRef `json:"new"`
	AlreadyProcessed []string             `json:"already_processed"`
	Enqueued         bool                 `json:"enqueued"`
	EnqueueError     string               `json:"enqueue_error,omitempty"`
}

// SyncService is the orchestrator. Its three entry points (explicit file
// list, discovery, scheduled sync) share one sequential per-document loop.
type SyncService struct {
	registry      *providers.Registry
	db            core.DbClient
	processor     DocumentProcessor
	queue         core.JobQueue
	validate      func() error
	documentDelay time.Duration

	// running admits one processing run at a time across all entry points;
	// overlapping writes to one document would interleave delete and insert.
	running chan struct{}
}

func NewSyncService(registry *providers.Registry, db core.DbClient, processor DocumentProcessor, queue core.JobQueue, cfg *config.Config) *SyncService {
	return &SyncService{
		registry:      registry,
		db:            db,
		processor:     processor,
		queue:         queue,
		validate:      cfg.Validate,
		documentDelay: cfg.DocumentDelay,
		running:       make(chan struct{}, 1),
	}
}

// acquire waits for the current run to finish or ctx to end.
func (s *SyncService) acquire(ctx context.Context) (release func(), err error) {
	select {
	case s.running <- struct{}{}:
		return func() { <-s.running }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for the running sync: %w", ctx.Err())
	}
}

// setup checks run prerequisites before anything is written.
func (s *SyncService) setup(providerName string) (core.Provider, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.registry == nil {
		return nil, fmt.Errorf("%w: no providers configured", core.ErrConfiguration)
	}
	return s.registry.Get(providerName)
}

// ProcessFiles processes an explicit list of names, whether or not they were
// processed before.
func (s *SyncService) ProcessFiles(ctx context.Context, providerName string, names []string) (*models.SyncRun, error) {
	prov, err := s.setup(providerName)
	if err != nil {
		return nil, err
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	run := newRun(providerName, models.TriggerManual)
	ctx = withRunLogger(ctx, run)
	run.DiscoveredCount = len(names)

	refs, missing := s.resolve(ctx, prov, names)
	for _, name := range missing {
		run.Errors = append(run.Errors, models.RunError{Document: name, Message: "not found in provider listing"})
		run.FailedCount++
	}
	run.NewCount = len(refs)

	s.runDocuments(ctx, prov, refs, run)
	s.finish(ctx, run)
	return run, nil
}

// resolve maps names onto listed refs. When the listing itself fails the
// names are used as their own locators.
func (s *SyncService) resolve(ctx context.Context, prov core.Provider, names []string) ([]models.DocumentRef, []string) {
	listed, err := prov.List(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("listing failed, using names as locators", "err", err)
		refs := make([]models.DocumentRef, 0, len(names))
		for _, n := range names {
			refs = append(refs, models.DocumentRef{
				Provider:    prov.Name(),
				Name:        n,
				Locator:     n,
				ContentHint: providers.ContentHint(n),
			})
		}
		return refs, nil
	}

	byName := make(map[string]models.DocumentRef, len(listed))
	for _, r := range listed {
		byName[r.Name] = r
	}
	var (
		refs    []models.DocumentRef
		missing []string
	)
	for _, n := range names {
		if r, ok := byName[n]; ok {
			refs = append(refs, r)
		} else {
			missing = append(missing, n)
		}
	}
	return refs, missing
}

// Discover lists a provider and classifies every document against the
// catalogue. With auto set, new documents are queued for processing.
func (s *SyncService) Discover(ctx context.Context, providerName string, auto bool) (*DiscoveryResult, error) {
	prov, err := s.setup(providerName)
	if err != nil {
		return nil, err
	}
	res, err := s.discover(ctx, prov)
	if err != nil {
		return nil, err
	}
	if auto && len(res.New) > 0 {
		job := core.ProcessJob{Provider: providerName, Refs: res.New, TriggeredBy: models.TriggerDiscovery}
		if err := s.queue.Enqueue(job); err != nil {
			logger.FromContext(ctx).Error("processing not queued", "provider", providerName, "err", err)
			res.EnqueueError = err.Error()
		} else {
			res.Enqueued = true
		}
	}
	return res, nil
}

func (s *SyncService) discover(ctx context.Context, prov core.Provider) (*DiscoveryResult, error) {
	log := logger.FromContext(ctx).With("provider", prov.Name())

	refs, err := prov.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prov.Name(), err)
	}
	catalogue, err := s.db.ListDocuments(ctx, prov.Name())
	if err != nil {
		return nil, fmt.Errorf("read catalogue: %w", err)
	}

	res := &DiscoveryResult{Provider: prov.Name(), Discovered: len(refs), New: []models.DocumentRef{}, AlreadyProcessed: []string{}}
	for _, ref := range refs {
		switch Classify(ref, catalogue) {
		case models.StateNew:
			res.New = append(res.New, ref)
		default:
			res.AlreadyProcessed = append(res.AlreadyProcessed, ref.Name)
		}
	}
	log.Info("discovery finished", "discovered", res.Discovered, "new", len(res.New), "already_processed", len(res.AlreadyProcessed))
	return res, nil
}

// Classify decides whether ref needs processing. A document is new when it
// is missing from the catalogue, did not finish successfully last time, holds
// generated placeholder content, or its size, etag or modification time
// changed.
func Classify(ref models.DocumentRef, catalogue map[string]models.Document) models.ProcessingState {
	doc, ok := catalogue[ref.Name]
	if !ok {
		return models.StateNew
	}
	if doc.Status != models.StatusReady || doc.Generated {
		return models.StateNew
	}
	if ref.SizeBytes != nil && doc.SizeBytes != nil && *ref.SizeBytes != *doc.SizeBytes {
		return models.StateNew
	}
	if ref.ETag != "" && doc.ETag != "" && ref.ETag != doc.ETag {
		return models.StateNew
	}
	if ref.LastModified != nil && doc.ModifiedAt != nil &&
		!ref.LastModified.Truncate(time.Second).Equal(doc.ModifiedAt.Truncate(time.Second)) {
		return models.StateNew
	}
	return models.StateAlreadyProcessed
}

// HandleJob processes a queued job. It is the worker side of auto discovery.
func (s *SyncService) HandleJob(ctx context.Context, job core.ProcessJob) {
	prov, err := s.setup(job.Provider)
	if err != nil {
		logger.FromContext(ctx).Error("queued job dropped", "provider", job.Provider, "err", err)
		return
	}
	release, err := s.acquire(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("queued job dropped", "provider", job.Provider, "err", err)
		return
	}
	defer release()

	run := newRun(job.Provider, job.TriggeredBy)
	ctx = withRunLogger(ctx, run)
	run.DiscoveredCount = len(job.Refs)
	run.NewCount = len(job.Refs)
	s.runDocuments(ctx, prov, job.Refs, run)
	s.finish(ctx, run)
}

// ScheduledSync chains discovery and processing for every provider. A
// provider whose listing fails is recorded and the next one still runs.
func (s *SyncService) ScheduledSync(ctx context.Context) ([]*models.SyncRun, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.registry == nil {
		return nil, fmt.Errorf("%w: no providers configured", core.ErrConfiguration)
	}
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var runs []*models.SyncRun
	for _, name := range s.registry.Names() {
		if err := ctx.Err(); err != nil {
			return runs, err
		}
		prov, err := s.registry.Get(name)
		if err != nil {
			return runs, err
		}
		run := newRun(name, models.TriggerSchedule)
		rctx := withRunLogger(ctx, run)

		res, err := s.discover(rctx, prov)
		if err != nil {
			logger.FromContext(rctx).Error("scheduled discovery failed", "err", err)
			run.Errors = append(run.Errors, models.RunError{Message: err.Error()})
		} else {
			run.DiscoveredCount = res.Discovered
			run.NewCount = len(res.New)
			s.runDocuments(rctx, prov, res.New, run)
		}
		s.finish(rctx, run)
		runs = append(runs, run)
	}
	return runs, nil
}

// runDocuments processes refs one after another with a fixed pause between
// documents. A cancelled context stops before the next document.
func (s *SyncService) runDocuments(ctx context.Context, prov core.Provider, refs []models.DocumentRef, run *models.SyncRun) {
	log := logger.FromContext(ctx)
	for i, ref := range refs {
		if i > 0 && s.documentDelay > 0 {
			t := time.NewTimer(s.documentDelay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
			}
		}
		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", "remaining", len(refs)-i, "err", err)
			run.Errors = append(run.Errors, models.RunError{Message: fmt.Sprintf("interrupted with %d documents left: %v", len(refs)-i, err)})
			return
		}

		out := s.processor.Process(ctx, prov, ref)
		run.Outcomes = append(run.Outcomes, out)
		run.ChunksSaved += out.ChunksSaved
		if out.Success {
			run.ProcessedCount++
			continue
		}
		run.FailedCount++
		run.Errors = append(run.Errors, models.RunError{Document: ref.Name, Message: out.Reason})
	}
}

func (s *SyncService) finish(ctx context.Context, run *models.SyncRun) {
	run.FinishedAt = time.Now().UTC()
	log := logger.FromContext(ctx)
	log.Info("sync run finished",
		"discovered", run.DiscoveredCount, "new", run.NewCount, "processed", run.ProcessedCount,
		"failed", run.FailedCount, "chunks_saved", run.ChunksSaved, "took", run.FinishedAt.Sub(run.StartedAt))

	// the run is already complete; persistence must not depend on the caller's deadline
	if err := s.db.RecordSyncRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error("sync run not recorded", "err", err)
	}
}

// Runs lists recent sync runs.
func (s *SyncService) Runs(ctx context.Context, limit int) ([]models.SyncRun, error) {
	return s.db.ListSyncRuns(ctx, limit)
}

func newRun(provider, trigger string) *models.SyncRun {
	return &models.SyncRun{
		ID:          uuid.NewString(),
		Provider:    provider,
		TriggeredBy: trigger,
		StartedAt:   time.Now().UTC(),
		Errors:      []models.RunError{},
		Outcomes:    []models.DocumentOutcome{},
	}
}

func withRunLogger(ctx context.Context, run *models.SyncRun) context.Context {
	l := logger.FromContext(ctx).With("run_id", run.ID, "provider", run.Provider, "trigger", run.TriggeredBy)
	return logger.ContextWithLogger(ctx, l)
}

// IsConfigurationError reports whether err aborted a run before it started.
func IsConfigurationError(err error) bool {
	return errors.Is(err, core.ErrConfiguration) || errors.Is(err, core.ErrUnknownProvider)
}
