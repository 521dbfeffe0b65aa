package collab

import (
	"context"
	"time"

	"polyglot/internal/logger"
	"polyglot/internal/model"
)

// DefaultGrace is how long after applying a remote snapshot local publishing
// stays suppressed, absorbing the store's echo of that write.
const DefaultGrace = 500 * time.Millisecond

// Transport is the shared store. Push and poll adapters both satisfy it.
type Transport interface {
	// Publish fully replaces the stored snapshot for snapshot.Key.
	Publish(ctx context.Context, snapshot model.Snapshot) error
	// Subscribe starts delivering snapshots for key until ctx is done. It
	// returns an error when the store cannot be reached at all; delivery
	// problems after that are the adapter's to retry.
	Subscribe(ctx context.Context, key string, onUpdate func(model.Snapshot)) error
}

// SyncBridge publishes local results to the shared store and merges remote
// snapshots into local state without echoing them back or overwriting a
// column the user is typing in.
type SyncBridge struct {
	rt        *runtime
	state     *State
	input     *InputController
	scroll    *ScrollCoordinator
	transport Transport
	key       string
	device    string
	grace     time.Duration
	timeout   time.Duration

	localOnly   bool
	lease       Lease
	lastApplied int64
	// deferred is the newest snapshot that arrived while the lease was held.
	deferred *model.Snapshot
	// parked holds remote text skipped because its column was being edited.
	parked map[string]string

	publishing bool
	queued     *model.Snapshot
}

// Publish writes a full-replace snapshot unless a remote update is being
// absorbed. Writes go out one at a time; while one is in flight only the
// newest later snapshot is kept.
func (b *SyncBridge) Publish(translations map[string]string, activeLanguage string) {
	if b.localOnly || b.transport == nil {
		return
	}
	if b.lease.Held() {
		logger.Debug("publish suppressed during remote apply", "module", "collab", "action", "publish", "resource", "sync", "result", "skipped", "key", b.key)
		return
	}

	snapshot := model.Snapshot{
		Key:            b.key,
		Translations:   make(map[string]string, len(translations)),
		ActiveLanguage: activeLanguage,
		Timestamp:      b.rt.clock.Now().UnixMilli(),
		Origin:         b.device,
	}
	for lang, text := range translations {
		snapshot.Translations[lang] = text
	}

	if b.publishing {
		b.queued = &snapshot
		return
	}
	b.send(snapshot)
}

func (b *SyncBridge) send(snapshot model.Snapshot) {
	b.publishing = true
	b.rt.track(1)
	go func() {
		ctx, cancel := context.WithTimeout(b.rt.ctx, b.timeout)
		defer cancel()
		err := b.transport.Publish(ctx, snapshot)
		b.rt.post(func() {
			b.rt.track(-1)
			b.published(snapshot, err)
		})
	}()
}

func (b *SyncBridge) published(snapshot model.Snapshot, err error) {
	b.publishing = false
	if err != nil {
		logger.Warn("sync publish failed", "module", "collab", "action", "publish", "resource", "sync", "result", "failed", "key", b.key, "error", err)
		b.rt.notify(Notice{Kind: NoticeNetwork, Err: err})
	} else {
		logger.Debug("sync published", "module", "collab", "action", "publish", "resource", "sync", "result", "ok", "key", b.key, "timestamp", snapshot.Timestamp)
	}
	if next := b.queued; next != nil {
		b.queued = nil
		b.send(*next)
	}
}

// OnRemoteUpdate merges a snapshot from the store.
func (b *SyncBridge) OnRemoteUpdate(snapshot model.Snapshot) {
	if snapshot.Key != "" && snapshot.Key != b.key {
		return
	}
	if snapshot.Origin != "" && snapshot.Origin == b.device {
		return
	}
	if snapshot.Timestamp != 0 && snapshot.Timestamp <= b.lastApplied {
		return
	}
	if b.lease.Held() {
		if b.deferred == nil || snapshot.Timestamp > b.deferred.Timestamp {
			s := snapshot.Clone()
			b.deferred = &s
		}
		return
	}
	b.apply(snapshot)
}

func (b *SyncBridge) apply(snapshot model.Snapshot) {
	token := b.lease.Acquire(b.grace)
	if snapshot.Timestamp > b.lastApplied {
		b.lastApplied = snapshot.Timestamp
	}

	for _, c := range b.state.columns {
		text, ok := snapshot.Translations[c.Language]
		if !ok {
			continue
		}
		if c.editing() {
			b.parked[c.Language] = text
			logger.Debug("remote text held for focused column", "module", "collab", "action", "sync", "resource", "column", "result", "skipped", "language", c.Language)
			continue
		}
		delete(b.parked, c.Language)
		if text == c.Text {
			continue
		}
		c.replace(text)
		b.scroll.AutoScrollIfNearBottom(c.Language)
	}

	if lang := snapshot.ActiveLanguage; lang != "" && lang != b.state.activeLanguage() {
		if cur := b.state.active(); cur == nil || !cur.editing() {
			b.input.selectFromRemote(lang)
		}
	}

	b.rt.changed()
	b.rt.clock.AfterFunc(b.grace, func() {
		b.rt.post(func() { b.expire(token) })
	})
}

// expire ends the lease and applies the newest snapshot that was held off.
func (b *SyncBridge) expire(token uint64) {
	if !b.lease.Release(token) {
		return
	}
	if next := b.deferred; next != nil {
		b.deferred = nil
		b.OnRemoteUpdate(*next)
	}
}

// releaseParked applies remote text held back while lang was being edited.
func (b *SyncBridge) releaseParked(lang string) {
	text, ok := b.parked[lang]
	c := b.state.column(lang)
	if !ok || c == nil || c.editing() {
		return
	}
	delete(b.parked, lang)
	if text == c.Text {
		return
	}
	c.replace(text)
	b.scroll.AutoScrollIfNearBottom(lang)
	b.rt.changed()
}

func (b *SyncBridge) reset() {
	b.deferred = nil
	b.queued = nil
	b.parked = make(map[string]string)
}
