package services

import (
	"context"
	"fmt"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/markdave123-py/docsync/internal/core"
	"github.com/markdave123-py/docsync/internal/logger"
	"github.com/markdave123-py/docsync/internal/models"
)

// ScheduledSyncer runs one full scheduled pass.
type ScheduledSyncer interface {
	ScheduledSync(ctx context.Context) ([]*models.SyncRun, error)
}

// Scheduler fires scheduled syncs in-process. Overlapping ticks are skipped
// while a pass is still running.
type Scheduler struct {
	spec   string
	syncer ScheduledSyncer
	cron   *cron.Cron
}

// NewScheduler parses spec (standard five-field cron or @every/@daily
// descriptors). An empty spec yields a disabled scheduler.
func NewScheduler(spec string, syncer ScheduledSyncer) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	s := &Scheduler{spec: spec, syncer: syncer}
	if spec == "" {
		return s, nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w: SYNC_SCHEDULE %q: %w", core.ErrConfiguration, spec, err)
	}
	return s, nil
}

// Enabled reports whether a schedule was configured.
func (s *Scheduler) Enabled() bool { return s.spec != "" }

// Start blocks until ctx is done, running the syncer on schedule. It waits
// for an in-flight pass before returning.
func (s *Scheduler) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if !s.Enabled() {
		log.Info("scheduler disabled, SYNC_SCHEDULE not set")
		<-ctx.Done()
		return nil
	}

	cl := cronLogger{l: log.WithPrefix("cron")}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("%w: schedule %q: %w", core.ErrConfiguration, s.spec, err)
	}

	log.Info("scheduler started", "schedule", s.spec)
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	log := logger.FromContext(ctx)
	runs, err := s.syncer.ScheduledSync(ctx)
	if err != nil {
		log.Error("scheduled sync aborted", "err", err)
		return
	}
	for _, r := range runs {
		log.Info("scheduled sync done", "provider", r.Provider, "processed", r.ProcessedCount, "failed", r.FailedCount)
	}
}

// cronLogger adapts charmbracelet/log to cron.Logger.
type cronLogger struct {
	l *charmlog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
