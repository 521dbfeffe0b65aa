package service

import (
	"context"
	"fmt"
	"time"

	"polyglot/internal/logger"
	"polyglot/internal/repository"
)

// CleanupService removes sync snapshots and cached translations that have
// not been written within the retention window.
type CleanupService interface {
	Cleanup(ctx context.Context) error
}

type cleanupService struct {
	sync      SyncService
	cache     repository.TranslationCacheRepository
	retention time.Duration
	now       func() time.Time
}

// NewCleanupService creates a new cleanup service.
func NewCleanupService(sync SyncService, cache repository.TranslationCacheRepository, retention time.Duration) CleanupService {
	return &cleanupService{sync: sync, cache: cache, retention: retention, now: time.Now}
}

func (s *cleanupService) Cleanup(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	snapshots, err := s.sync.Prune(ctx, s.retention)
	if err != nil {
		return err
	}
	cached, err := s.cache.DeleteOlderThan(ctx, s.now().Add(-s.retention))
	if err != nil {
		return fmt.Errorf("prune translations: %w", err)
	}
	logger.Info("cleanup completed", "module", "service", "action", "delete", "resource", "cleanup", "result", "ok", "snapshots", snapshots, "translations", cached)
	return nil
}
