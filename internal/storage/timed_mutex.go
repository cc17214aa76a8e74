package storage

import (
	"context"
	"time"

	"go.uber.org/atomic"

	"coronabot/internal/providers"
	"coronabot/internal/structures"
)

// TimedMutex is a binary lock that prefers availability over strict mutual
// exclusion: a waiter whose deadline elapses forcibly releases the lock and
// reports success. Deadlines scale with the number of waiters at entry, so
// late arrivals wait proportionally longer instead of stampeding the break.
//
// Known hazard, kept on purpose: after a forced release the original holder
// and the breaking waiter both believe they hold the lock. The store is
// replaced wholesale on push, so the worst case is a lost update, not a
// torn document.
type TimedMutex struct {
	ch      chan struct{}
	timeout time.Duration
	waiting atomic.Int64
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
}

// NewTimedMutex creates the lock. A negative timeout disables the break
// behavior entirely: Acquire blocks until the lock frees or ctx ends.
func NewTimedMutex(timeout time.Duration, logger providers.Logger, metrics providers.MetricsProviderInterface) *TimedMutex {
	return &TimedMutex{
		ch:      make(chan struct{}, 1),
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// NewStoreLock builds the process-wide lock guarding the subscription store.
func NewStoreLock(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *TimedMutex {
	return NewTimedMutex(conf.Persistence.LockTimeout, logger, metrics)
}

// Acquire takes the lock. With a non-negative timeout it returns nil either
// when the lock was taken or when the deadline forced a release; the only
// error is ctx cancellation.
func (m *TimedMutex) Acquire(ctx context.Context) error {
	if m.timeout < 0 {
		select {
		case m.ch <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	deadline := time.Duration(m.waiting.Inc()) * m.timeout
	defer m.waiting.Dec()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case m.ch <- struct{}{}:
		return nil
	case <-timer.C:
		m.logger.Warnf(providers.TypeApp, "Maximum lock time reached (%s), releasing", deadline)
		m.metrics.IncLockForcedReleases()
		m.Release()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the lock if held; releasing an unheld lock is a no-op.
func (m *TimedMutex) Release() {
	select {
	case <-m.ch:
	default:
	}
}

// IsLocked observes the current hold state. Advisory only: it races with
// concurrent Acquire/Release.
func (m *TimedMutex) IsLocked() bool {
	return len(m.ch) == 1
}
