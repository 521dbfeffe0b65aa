package collabtest

import (
	"context"
	"sync"

	"polyglot/internal/model"
)

// Store is an in-memory shared store. Every write gets the next timestamp
// and is delivered synchronously to every subscriber of its key, the writer
// included.
type Store struct {
	PublishErr   error
	SubscribeErr error

	mu        sync.Mutex
	clock     int64
	snapshots map[string]model.Snapshot
	subs      map[string]map[int]func(model.Snapshot)
	nextID    int
	writes    []model.Snapshot
}

func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]model.Snapshot),
		subs:      make(map[string]map[int]func(model.Snapshot)),
	}
}

func (s *Store) Publish(ctx context.Context, snapshot model.Snapshot) error {
	s.mu.Lock()
	if s.PublishErr != nil {
		err := s.PublishErr
		s.mu.Unlock()
		return err
	}
	s.clock++
	snapshot = snapshot.Clone()
	snapshot.Timestamp = s.clock
	s.snapshots[snapshot.Key] = snapshot
	s.writes = append(s.writes, snapshot)
	var subs []func(model.Snapshot)
	for _, fn := range s.subs[snapshot.Key] {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot.Clone())
	}
	return nil
}

func (s *Store) Subscribe(ctx context.Context, key string, onUpdate func(model.Snapshot)) error {
	s.mu.Lock()
	if s.SubscribeErr != nil {
		err := s.SubscribeErr
		s.mu.Unlock()
		return err
	}
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(model.Snapshot))
	}
	id := s.nextID
	s.nextID++
	s.subs[key][id] = onUpdate
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[key], id)
		s.mu.Unlock()
	}()
	return nil
}

// Inject delivers a snapshot as if another device had written it.
func (s *Store) Inject(snapshot model.Snapshot) model.Snapshot {
	_ = s.Publish(context.Background(), snapshot)
	got, _ := s.Get(snapshot.Key)
	return got
}

func (s *Store) Get(key string) (model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[key]
	return snap.Clone(), ok
}

// Writes returns every accepted write in order.
func (s *Store) Writes() []model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Snapshot(nil), s.writes...)
}

// Deliver hands snapshot to subscribers of its key without storing it, as a
// transport replaying an earlier notification would.
func (s *Store) Deliver(snapshot model.Snapshot) {
	s.mu.Lock()
	var subs []func(model.Snapshot)
	for _, fn := range s.subs[snapshot.Key] {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot.Clone())
	}
}
