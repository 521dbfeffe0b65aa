package scheduler

import (
	"context"
	"sync"
	"time"

	"polyglot/internal/logger"
	"polyglot/internal/service"
)

// Scheduler runs the cleanup service on a fixed interval.
type Scheduler struct {
	cleanup    service.CleanupService
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
	cancelFunc context.CancelFunc // cancels the current cleanup run
	mu         sync.Mutex         // protects cancelFunc
}

func New(cleanup service.CleanupService, interval time.Duration) *Scheduler {
	return &Scheduler{
		cleanup:  cleanup,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	logger.Info("scheduler started", "module", "scheduler", "action", "cleanup", "resource", "sync", "result", "ok", "interval_ms", s.interval.Milliseconds())
}

// Stop cancels a running cleanup and waits for the loop to exit. Safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.cancelFunc != nil {
			s.cancelFunc()
		}
		s.mu.Unlock()

		close(s.stopCh)
		s.wg.Wait()
		logger.Info("scheduler stopped", "module", "scheduler", "action", "cleanup", "resource", "sync", "result", "ok")
	})
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)

	s.mu.Lock()
	s.cancelFunc = cancel
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancelFunc = nil
		s.mu.Unlock()
	}()

	if err := s.cleanup.Cleanup(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Warn("scheduled cleanup cancelled", "module", "scheduler", "action", "cleanup", "resource", "sync", "result", "cancelled")
			return
		}
		logger.Error("scheduled cleanup failed", "module", "scheduler", "action", "cleanup", "resource", "sync", "result", "failed", "error", err)
	}
}
