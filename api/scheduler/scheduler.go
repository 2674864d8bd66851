package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CleanupInterval is how often resolved issues are swept
const CleanupInterval = 24 * time.Hour

const sweepTimeout = 5 * time.Minute

// Sweeper deletes expired resolved issues
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepObserver records the outcome of each sweep
type SweepObserver interface {
	ObserveSweep(deleted int64, err error)
}

// Scheduler runs the cleanup sweep in the background, once at start and
// then every CleanupInterval. A failing sweep is logged and the schedule
// carries on.
type Scheduler struct {
	cron     *cron.Cron
	sweeper  Sweeper
	observer SweepObserver
	interval time.Duration

	// running guards against overlapping sweeps
	running sync.Mutex
	wg      sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(s Sweeper, o SweepObserver) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		sweeper:  s,
		observer: o,
		interval: CleanupInterval,
	}
}

// Start registers the cleanup job, starts the cron runner and kicks off
// the first sweep without waiting for it
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runCleanup); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}
	s.cron.Start()
	zap.S().Infow("cleanup scheduler started", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runCleanup()
	}()
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running sweep
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	zap.S().Info("cleanup scheduler stopped")
}

func (s *Scheduler) runCleanup() {
	_, _ = s.RunCleanup(context.Background())
}

// RunCleanup performs one sweep, logging and recording its outcome. A
// panic inside the sweep is recovered and reported as an error.
func (s *Scheduler) RunCleanup(parent context.Context) (deleted int64, err error) {
	if !s.running.TryLock() {
		zap.S().Warn("cleanup sweep already running, skipping")
		return 0, nil
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(parent, sweepTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup sweep panicked: %v", r)
			deleted = 0
		}
		if s.observer != nil {
			s.observer.ObserveSweep(deleted, err)
		}
		if err != nil {
			zap.S().Errorw("cleanup sweep failed", "error", err)
			return
		}
		zap.S().Infow("cleanup sweep finished", "deleted", deleted)
	}()

	return s.sweeper.Sweep(ctx)
}

// cronLogger routes cron's own logging through zap
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.S().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.S().Errorw(msg, append(keysAndValues, "error", err)...)
}
