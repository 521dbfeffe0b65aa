package collab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"polyglot/internal/logger"
	"polyglot/internal/model"
)

// runtime is what the components share: the loop, the clock and the hooks
// out to the host. Everything here is used only on the loop goroutine.
type runtime struct {
	ctx     context.Context
	clock   Clock
	post    func(func()) bool
	changed func()
	notify  func(Notice)
	track   func(delta int)
}

// Options configure a Session. Zero durations and thresholds take their
// defaults.
type Options struct {
	// Languages are the column identifiers in display order; at least two.
	Languages []string
	// Key names the shared snapshot all devices of a session write to.
	Key string
	// DeviceID tags published snapshots so their echoes can be recognised.
	DeviceID string

	Debounce        time.Duration
	Grace           time.Duration
	RequestTimeout  time.Duration
	IdleTimeout     time.Duration // negative disables the idle rule
	Policy          SignificancePolicy
	ScrollThreshold int

	Translator Translator
	Transport  Transport // nil means this device works alone
	Clock      Clock
	Viewports  map[string]Viewport

	// OnNotice and OnChange run on the session goroutine and must not block.
	OnNotice func(Notice)
	OnChange func()
}

// Session is one device's collaborative translation surface. Its methods
// are safe for concurrent use; state changes happen in order on a private
// goroutine.
type Session struct {
	opts   Options
	loop   *Loop
	ctx    context.Context
	cancel context.CancelFunc

	state  *State
	input  *InputController
	orch   *Orchestrator
	bridge *SyncBridge
	scroll *ScrollCoordinator

	outstanding int
	waiters     []chan struct{}
	started     bool
}

// New validates opts and builds an idle session. Call Start to connect sync.
func New(opts Options) (*Session, error) {
	langs, err := normalizeLanguages(opts.Languages)
	if err != nil {
		return nil, err
	}
	opts.Languages = langs
	if opts.Translator == nil {
		return nil, fmt.Errorf("%w: translator is required", ErrConfiguration)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Grace <= 0 {
		opts.Grace = DefaultGrace
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.ScrollThreshold <= 0 {
		opts.ScrollThreshold = DefaultScrollThreshold
	}
	if opts.Policy.isZero() {
		opts.Policy = DefaultSignificancePolicy()
	}

	s := &Session{opts: opts, loop: NewLoop()}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	rt := &runtime{
		ctx:     s.ctx,
		clock:   opts.Clock,
		post:    s.post,
		changed: s.changed,
		notify:  s.notify,
		track:   func(delta int) { s.outstanding += delta },
	}

	s.state = newState(langs)
	s.scroll = newScrollCoordinator(s.state, opts.Viewports, opts.ScrollThreshold)
	s.bridge = &SyncBridge{
		rt:        rt,
		state:     s.state,
		scroll:    s.scroll,
		transport: opts.Transport,
		key:       opts.Key,
		device:    opts.DeviceID,
		grace:     opts.Grace,
		timeout:   opts.RequestTimeout,
		lease:     Lease{clock: opts.Clock},
		parked:    make(map[string]string),
		localOnly: opts.Transport == nil,
	}
	s.orch = &Orchestrator{
		rt:         rt,
		state:      s.state,
		scroll:     s.scroll,
		bridge:     s.bridge,
		translator: opts.Translator,
		policy:     opts.Policy,
		debounce:   opts.Debounce,
		timeout:    opts.RequestTimeout,
	}
	s.input = &InputController{
		rt:     rt,
		state:  s.state,
		orch:   s.orch,
		scroll: s.scroll,
		bridge: s.bridge,
		idle:   opts.IdleTimeout,
	}
	s.bridge.input = s.input
	return s, nil
}

func normalizeLanguages(languages []string) ([]string, error) {
	seen := make(map[string]bool, len(languages))
	var out []string
	for _, lang := range languages {
		lang = strings.TrimSpace(lang)
		if lang == "" {
			return nil, fmt.Errorf("%w: empty language identifier", ErrConfiguration)
		}
		if seen[lang] {
			return nil, fmt.Errorf("%w: duplicate language %q", ErrConfiguration, lang)
		}
		seen[lang] = true
		out = append(out, lang)
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("%w: at least two languages are required", ErrConfiguration)
	}
	return out, nil
}

// Start subscribes to the shared store until ctx or the session ends. When the store is missing or cannot
// be reached the session keeps working on this device alone; the returned
// error, wrapping ErrConfiguration, says why.
func (s *Session) Start(ctx context.Context) error {
	var already bool
	s.loop.Do(func() {
		already = s.started
		s.started = true
	})
	if already {
		return nil
	}

	if s.opts.Transport == nil || s.opts.Key == "" {
		err := fmt.Errorf("%w: no sync store configured", ErrConfiguration)
		s.goLocal(err)
		return err
	}

	// ctx bounds the subscription; the session's own context bounds it too.
	subCtx, stop := context.WithCancel(s.ctx)
	context.AfterFunc(ctx, stop)

	err := s.opts.Transport.Subscribe(subCtx, s.opts.Key, func(snapshot model.Snapshot) {
		snapshot = snapshot.Clone()
		s.post(func() { s.bridge.OnRemoteUpdate(snapshot) })
	})
	if err != nil {
		stop()
		err = fmt.Errorf("%w: subscribe %q: %v", ErrConfiguration, s.opts.Key, err)
		s.goLocal(err)
		return err
	}
	logger.Info("sync subscribed", "module", "collab", "action", "subscribe", "resource", "sync", "result", "ok", "key", s.opts.Key, "device", s.opts.DeviceID)
	return nil
}

func (s *Session) goLocal(err error) {
	logger.Warn("sync unavailable, continuing locally", "module", "collab", "action", "subscribe", "resource", "sync", "result", "failed", "key", s.opts.Key, "error", err)
	s.post(func() {
		s.bridge.localOnly = true
		s.notify(Notice{Kind: NoticeConfiguration, Err: err})
	})
}

// Close stops timers, cancels outstanding calls and stops the session.
func (s *Session) Close() {
	s.loop.Do(func() {
		s.orch.cancelTimer()
		s.input.reset()
	})
	s.cancel()
	s.loop.Close()
}

// Reset clears every column and pending work, as on starting a new session.
func (s *Session) Reset() {
	s.post(func() {
		s.orch.reset()
		s.input.reset()
		s.bridge.reset()
		s.state.reset()
		s.changed()
	})
}

// SelectColumn makes lang the editable column on this device.
func (s *Session) SelectColumn(lang string) {
	s.post(func() { s.input.SelectColumn(lang) })
}

// Keystroke reports the full new text of lang after a local edit.
func (s *Session) Keystroke(lang, text string) {
	s.post(func() { s.input.OnKeystroke(lang, text) })
}

// Submit replaces lang's text and translates it at once, skipping the
// debounce and the significance check.
func (s *Session) Submit(lang, text string) {
	s.post(func() {
		if c := s.state.column(lang); c == nil || !c.Active {
			s.input.SelectColumn(lang)
		}
		if s.input.OnKeystroke(lang, text) {
			s.orch.cancelTimer()
			s.orch.TranslateText(text, lang)
		}
	})
}

// SetCursor reports the cursor position in lang as a rune offset.
func (s *Session) SetCursor(lang string, offset int) {
	s.post(func() { s.input.SetCursor(lang, offset) })
}

func (s *Session) Focus(lang string) {
	s.post(func() { s.input.SetFocus(lang, true) })
}

func (s *Session) Blur(lang string) {
	s.post(func() { s.input.SetFocus(lang, false) })
}

// Scrolled reports a manual scroll of lang's viewport.
func (s *Session) Scrolled(lang string, m ScrollMetrics) {
	s.post(func() { s.scroll.OnScroll(lang, m) })
}

// Columns returns a copy of every column in display order.
func (s *Session) Columns() []Column {
	var out []Column
	s.loop.Do(func() { out = s.state.views() })
	return out
}

// Languages returns the column identifiers in display order.
func (s *Session) Languages() []string {
	return append([]string(nil), s.opts.Languages...)
}

func (s *Session) Phase() Phase {
	p := PhaseIdle
	s.loop.Do(func() { p = s.orch.Phase() })
	return p
}

// LocalOnly reports whether sync is off for this session.
func (s *Session) LocalOnly() bool {
	var local bool
	s.loop.Do(func() { local = s.bridge.localOnly })
	return local
}

// Flush waits until no debounce is pending and no translation or publish is
// outstanding.
func (s *Session) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.loop.Do(func() {
		if s.settled() {
			close(done)
			return
		}
		s.waiters = append(s.waiters, done)
	}) {
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) settled() bool {
	return s.orch.Phase() == PhaseIdle && s.outstanding == 0
}

// post runs fn on the session goroutine, then wakes Flush callers if the
// session has gone quiet.
func (s *Session) post(fn func()) bool {
	return s.loop.Post(func() {
		fn()
		if len(s.waiters) > 0 && s.settled() {
			for _, w := range s.waiters {
				close(w)
			}
			s.waiters = nil
		}
	})
}

func (s *Session) changed() {
	if s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

func (s *Session) notify(n Notice) {
	if s.opts.OnNotice != nil {
		s.opts.OnNotice(n)
	}
}
