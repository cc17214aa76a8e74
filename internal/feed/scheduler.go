package feed

import (
	"context"
	"sync"
	"time"

	"github.com/roylee0704/gron"

	"coronabot/internal/errs"
	"coronabot/internal/providers"
	"coronabot/internal/storage"
	"coronabot/internal/structures"
)

type SchedulerInterface interface {
	Init()
	Stop()
	Restore() error
	Persist() error
}

// Scheduler drives the reconciler on the configured interval. The first
// cycle fires immediately on Init so a restarted instance catches up
// without waiting out a full interval.
type Scheduler struct {
	config     *structures.Config
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
	reconciler *Reconciler
	store      *storage.Store
	lock       *storage.TimedMutex
	cron       *gron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	opsMu      sync.Mutex
}

func (s *Scheduler) Init() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Feed.Interval), func() {
		s.runCycle()
	})

	s.cron.Start()
	go s.runCycle()
}

func (s *Scheduler) runCycle() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	s.logger.Infof(providers.TypeFeed, "Reconciling subscriptions...")
	start := time.Now()
	err := s.reconciler.RunCycle(s.ctx)
	switch {
	case err == nil:
		s.metrics.IncFeedCycles("ok")
		s.logger.Infof(providers.TypeFeed, "Reconcile cycle finished in %s", time.Since(start))
	case errs.IsTransient(err):
		s.metrics.IncFeedCycles("transient")
		s.logger.Warnf(providers.TypeFeed, "Reconcile cycle hit a transient failure, will retry next tick: %s", err)
	default:
		s.metrics.IncFeedCycles("error")
		s.logger.Errorf(providers.TypeFeed, "Reconcile cycle failed: %s", err)
	}
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore loads the persisted document into memory before the first
// cycle runs.
func (s *Scheduler) Restore() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Persistence.LockTimeout)
	defer cancel()

	if err := s.lock.Acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Release()

	return s.store.Pull()
}

// Persist flushes the in-memory document to disk. Called on shutdown.
func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Persistence.LockTimeout)
	defer cancel()

	if err := s.lock.Acquire(ctx); err != nil {
		return err
	}
	defer s.lock.Release()

	s.logger.Infof(providers.TypeApp, "Persisting subscriptions to file...")
	if err := s.store.Push(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface,
	reconciler *Reconciler, store *storage.Store, lock *storage.TimedMutex) SchedulerInterface {
	return &Scheduler{
		config:     config,
		logger:     logger,
		metrics:    metrics,
		reconciler: reconciler,
		store:      store,
		lock:       lock,
	}
}
