package collab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"polyglot/internal/logger"
)

// DefaultDebounce is the pause in typing after which a translation is sent.
const DefaultDebounce = 750 * time.Millisecond

// DefaultRequestTimeout bounds a single provider call.
const DefaultRequestTimeout = 20 * time.Second

// Translator is the translation provider: it returns a translation of the
// full text for every configured language other than source.
type Translator interface {
	Translate(ctx context.Context, text, source string) (map[string]string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, text, source string) (map[string]string, error)

func (f TranslatorFunc) Translate(ctx context.Context, text, source string) (map[string]string, error) {
	return f(ctx, text, source)
}

// Phase is the orchestrator's state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDebouncing
	PhaseTranslating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDebouncing:
		return "debouncing"
	case PhaseTranslating:
		return "translating"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Orchestrator decides when typed text is worth translating, sends at most
// one request at a time and merges results into the other columns.
type Orchestrator struct {
	rt         *runtime
	state      *State
	scroll     *ScrollCoordinator
	bridge     *SyncBridge
	translator Translator
	policy     SignificancePolicy
	debounce   time.Duration
	timeout    time.Duration

	timer    Timer
	seq      uint64 // identifies the current debounce timer
	inFlight bool
	// pending is set from scheduling until the request is sent, and again
	// when a due request is dropped by the in-flight guard. While set, every
	// changed keystroke reschedules regardless of the significance policy.
	pending bool
	// dropped is the source of the last request dropped by the in-flight
	// guard; its latest input is retried once the request in flight ends.
	dropped string
	// epoch advances on clear and reset; results from an older epoch are
	// discarded.
	epoch uint64
}

// Phase reports the current state. A debounce scheduled while a request is
// in flight reports Debouncing.
func (o *Orchestrator) Phase() Phase {
	switch {
	case o.timer != nil:
		return PhaseDebouncing
	case o.inFlight:
		return PhaseTranslating
	default:
		return PhaseIdle
	}
}

// HandleInput reacts to new text in the source column.
func (o *Orchestrator) HandleInput(text, source string) {
	o.cancelTimer()

	c := o.state.column(source)
	if c == nil {
		return
	}
	trimmed := strings.TrimSpace(text)
	prev := c.input
	c.input = trimmed

	if trimmed == "" {
		o.clear(source)
		return
	}
	if trimmed == c.LastTranslated {
		o.pending = false
		return
	}
	if !o.pending && !o.policy.Significant(prev, c.LastTranslated, trimmed) {
		return
	}

	o.pending = true
	o.schedule(trimmed, source)
}

// TranslateText sends text to the provider unless a request is already in
// flight, in which case the call is dropped.
func (o *Orchestrator) TranslateText(text, source string) {
	text = strings.TrimSpace(text)
	if text == "" || o.state.column(source) == nil {
		return
	}
	if o.inFlight {
		o.pending = true
		o.dropped = source
		logger.Debug("translation dropped, request in flight", "module", "collab", "action", "translate", "resource", "translation", "result", "skipped", "source", source)
		return
	}

	o.inFlight = true
	o.pending = false
	epoch := o.epoch
	requestedAt := o.rt.clock.Now()

	o.rt.track(1)
	go func() {
		ctx, cancel := context.WithTimeout(o.rt.ctx, o.timeout)
		defer cancel()
		result, err := o.call(ctx, text, source)
		o.rt.post(func() {
			o.rt.track(-1)
			o.finish(epoch, text, source, requestedAt, result, err)
		})
	}()
}

// call runs the provider, turning a panic into a ProviderError.
func (o *Orchestrator) call(ctx context.Context, text, source string) (result map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ProviderError{Message: fmt.Sprint(r)}
		}
	}()
	return o.translator.Translate(ctx, text, source)
}

func (o *Orchestrator) finish(epoch uint64, text, source string, requestedAt time.Time, result map[string]string, err error) {
	o.inFlight = false
	defer o.retry()
	elapsed := o.rt.clock.Now().Sub(requestedAt)

	if err != nil {
		logger.Warn("translation failed", "module", "collab", "action", "translate", "resource", "translation", "result", "failed", "source", source, "duration_ms", elapsed.Milliseconds(), "error", err)
		o.rt.notify(Notice{Kind: classify(err), Language: source, Err: err})
		return
	}
	if epoch != o.epoch {
		logger.Debug("stale translation discarded", "module", "collab", "action", "translate", "resource", "translation", "result", "skipped", "source", source)
		return
	}

	publish := o.state.translations()
	for _, c := range o.state.columns {
		value, ok := result[c.Language]
		if !ok || c.Language == source {
			continue
		}
		if c.editing() {
			// Someone started typing here while the request was out; the
			// store gets what this device shows.
			continue
		}
		publish[c.Language] = value
		c.replace(value)
		o.scroll.AutoScrollIfNearBottom(c.Language)
	}
	if src := o.state.column(source); src != nil {
		src.LastTranslated = text
	}
	publish[source] = text

	logger.Debug("translation applied", "module", "collab", "action", "translate", "resource", "translation", "result", "ok", "source", source, "duration_ms", elapsed.Milliseconds())
	o.rt.changed()
	o.bridge.Publish(publish, o.state.activeLanguage())
}

// retry re-arms the debounce for input dropped while a request was in
// flight, unless the user already scheduled it again or it was since sent.
func (o *Orchestrator) retry() {
	source := o.dropped
	o.dropped = ""
	if !o.pending || o.timer != nil || source == "" {
		return
	}
	c := o.state.column(source)
	if c == nil || c.input == "" || c.input == c.LastTranslated {
		return
	}
	o.schedule(c.input, source)
}

// clear empties every other column at once and forgets what was last sent,
// so retyping the same text translates again.
func (o *Orchestrator) clear(source string) {
	o.pending = false
	o.dropped = ""
	o.epoch++

	cleared := false
	for _, c := range o.state.columns {
		if c.Language == source {
			cleared = cleared || c.LastTranslated != ""
			c.LastTranslated = ""
			continue
		}
		if c.editing() || (c.Text == "" && c.LastTranslated == "") {
			continue
		}
		c.replace("")
		o.scroll.AutoScrollIfNearBottom(c.Language)
		cleared = true
	}
	if !cleared {
		return
	}

	o.rt.changed()
	published := o.state.translations()
	published[source] = ""
	o.bridge.Publish(published, o.state.activeLanguage())
}

func (o *Orchestrator) schedule(text, source string) {
	o.seq++
	seq := o.seq
	o.timer = o.rt.clock.AfterFunc(o.debounce, func() {
		o.rt.post(func() {
			if seq != o.seq {
				return
			}
			o.timer = nil
			o.TranslateText(text, source)
		})
	})
}

func (o *Orchestrator) cancelTimer() {
	o.seq++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}

func (o *Orchestrator) reset() {
	o.cancelTimer()
	o.pending = false
	o.dropped = ""
	o.epoch++
}
