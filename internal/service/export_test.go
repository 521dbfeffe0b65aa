package service

import (
	"time"

	"polyglot/internal/repository"
)

// NewSyncServiceForTest builds a sync service with a fixed clock.
func NewSyncServiceForTest(repo repository.SnapshotRepository, now func() time.Time) SyncService {
	return newSyncService(repo, now)
}
