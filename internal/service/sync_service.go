package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"polyglot/internal/logger"
	"polyglot/internal/model"
	"polyglot/internal/repository"
)

// SyncService stores one snapshot per sync key and fans writes out to
// subscribers. Every write replaces the stored record; the newest write wins.
type SyncService interface {
	// Publish stamps the snapshot with a timestamp greater than the stored
	// one, saves it and notifies subscribers.
	Publish(ctx context.Context, snapshot model.Snapshot) (model.Snapshot, error)
	// Get returns the stored snapshot or ErrNotFound.
	Get(ctx context.Context, key string) (model.Snapshot, error)
	// Poll reports whether the snapshot changed after since.
	Poll(ctx context.Context, key string, since int64) (model.PollResult, error)
	// Subscribe delivers every later write for key. Slow readers only see the
	// newest snapshot. The returned func unsubscribes and closes the channel.
	Subscribe(key string) (<-chan model.Snapshot, func())
	// Prune deletes snapshots not written within olderThan.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

type syncService struct {
	repo repository.SnapshotRepository
	now  func() time.Time

	mu   sync.Mutex // serialises stamping and saving
	hub  sync.Mutex
	subs map[string]map[chan model.Snapshot]struct{}
}

// NewSyncService creates a new sync service.
func NewSyncService(repo repository.SnapshotRepository) SyncService {
	return newSyncService(repo, time.Now)
}

func newSyncService(repo repository.SnapshotRepository, now func() time.Time) *syncService {
	return &syncService{
		repo: repo,
		now:  now,
		subs: make(map[string]map[chan model.Snapshot]struct{}),
	}
}

func (s *syncService) Publish(ctx context.Context, snapshot model.Snapshot) (model.Snapshot, error) {
	snapshot.Key = strings.TrimSpace(snapshot.Key)
	if snapshot.Key == "" {
		return model.Snapshot{}, fmt.Errorf("%w: sync key is required", ErrInvalid)
	}
	if snapshot.Translations == nil {
		return model.Snapshot{}, fmt.Errorf("%w: translations are required", ErrInvalid)
	}
	snapshot = snapshot.Clone()

	s.mu.Lock()
	prev, err := s.repo.Get(ctx, snapshot.Key)
	if err != nil {
		s.mu.Unlock()
		return model.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	snapshot.Timestamp = s.now().UnixMilli()
	if prev != nil && snapshot.Timestamp <= prev.Timestamp {
		snapshot.Timestamp = prev.Timestamp + 1
	}
	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.mu.Unlock()
		logger.Warn("snapshot save failed", "module", "service", "action", "save", "resource", "sync", "result", "failed", "key", snapshot.Key, "error", err)
		return model.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.mu.Unlock()

	s.broadcast(snapshot)
	logger.Debug("snapshot published", "module", "service", "action", "save", "resource", "sync", "result", "ok", "key", snapshot.Key, "timestamp", snapshot.Timestamp, "origin", snapshot.Origin)
	return snapshot, nil
}

func (s *syncService) Get(ctx context.Context, key string) (model.Snapshot, error) {
	snapshot, err := s.repo.Get(ctx, key)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	if snapshot == nil {
		return model.Snapshot{}, ErrNotFound
	}
	return *snapshot, nil
}

func (s *syncService) Poll(ctx context.Context, key string, since int64) (model.PollResult, error) {
	snapshot, err := s.repo.Get(ctx, key)
	if err != nil {
		return model.PollResult{}, fmt.Errorf("get snapshot: %w", err)
	}
	if snapshot == nil {
		return model.PollResult{Changed: false, Timestamp: since}, nil
	}
	if snapshot.Timestamp <= since {
		return model.PollResult{Changed: false, Timestamp: snapshot.Timestamp}, nil
	}
	return model.PollResult{Changed: true, Snapshot: snapshot, Timestamp: snapshot.Timestamp}, nil
}

func (s *syncService) Subscribe(key string) (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, 1)

	s.hub.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[chan model.Snapshot]struct{})
	}
	s.subs[key][ch] = struct{}{}
	s.hub.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.hub.Lock()
			delete(s.subs[key], ch)
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
			close(ch)
			s.hub.Unlock()
		})
	}
}

func (s *syncService) broadcast(snapshot model.Snapshot) {
	s.hub.Lock()
	defer s.hub.Unlock()
	for ch := range s.subs[snapshot.Key] {
		// Replace an unread older snapshot instead of blocking the writer.
		select {
		case <-ch:
		default:
		}
		ch <- snapshot.Clone()
	}
}

func (s *syncService) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.repo.DeleteOlderThan(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return n, nil
}
