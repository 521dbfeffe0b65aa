package collab_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"polyglot/internal/collab"
	"polyglot/internal/collab/collabtest"
	"polyglot/internal/model"
)

var languages = []string{"french", "english", "polish"}

const greeting = "Hello there, how are you doing today my friend?"

type harness struct {
	t       *testing.T
	clock   *collabtest.Clock
	tr      *collabtest.Translator
	store   *collabtest.Store
	vps     map[string]*collabtest.Viewport
	notices chan collab.Notice
	changes atomic.Int64
	s       *collab.Session
}

// newHarness builds and starts a session for device. A nil store leaves the
// session without a transport.
func newHarness(t *testing.T, clock *collabtest.Clock, store *collabtest.Store, device string, mutate ...func(*collab.Options)) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		clock:   clock,
		tr:      collabtest.NewTranslator(languages...),
		store:   store,
		vps:     make(map[string]*collabtest.Viewport),
		notices: make(chan collab.Notice, 16),
	}
	viewports := make(map[string]collab.Viewport)
	for _, lang := range languages {
		vp := &collabtest.Viewport{}
		h.vps[lang] = vp
		viewports[lang] = vp
	}

	opts := collab.Options{
		Languages:  languages,
		Key:        "room",
		DeviceID:   device,
		Translator: h.tr,
		Clock:      clock,
		Viewports:  viewports,
		OnNotice: func(n collab.Notice) {
			select {
			case h.notices <- n:
			default:
			}
		},
		OnChange: func() { h.changes.Add(1) },
	}
	if store != nil {
		opts.Transport = store
	}
	for _, fn := range mutate {
		fn(&opts)
	}

	s, err := collab.New(opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	h.s = s
	if store != nil {
		require.NoError(t, s.Start(context.Background()))
	}
	return h
}

func (h *harness) column(lang string) collab.Column {
	h.t.Helper()
	for _, c := range h.s.Columns() {
		if c.Language == lang {
			return c
		}
	}
	h.t.Fatalf("no column %q", lang)
	return collab.Column{}
}

func (h *harness) flush() {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(h.t, h.s.Flush(ctx))
}

// settle waits for everything already posted to the session to run.
func (h *harness) settle() {
	h.s.Columns()
}

func (h *harness) advance(d time.Duration) {
	h.settle()
	h.clock.Advance(d)
	h.settle()
}

func (h *harness) typeText(lang, text string) {
	h.s.SelectColumn(lang)
	h.s.Keystroke(lang, text)
	h.settle()
}

func (h *harness) notice() collab.Notice {
	h.t.Helper()
	select {
	case n := <-h.notices:
		return n
	case <-time.After(2 * time.Second):
		h.t.Fatal("no notice raised")
		return collab.Notice{}
	}
}

func TestSession_TranslatesEnglishIntoOtherColumns(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-a")
	h.tr.Respond = func(text, source string) (map[string]string, error) {
		return map[string]string{
			"french": "Bonjour, comment vas-tu aujourd'hui mon ami ?",
			"polish": "Witaj, jak się dziś masz, mój przyjacielu?",
		}, nil
	}

	h.typeText("english", greeting)
	require.Equal(t, collab.PhaseDebouncing, h.s.Phase())

	h.advance(749 * time.Millisecond)
	require.Empty(t, h.tr.Calls())

	h.advance(time.Millisecond)
	h.flush()

	require.Equal(t, []collabtest.Call{{Text: greeting, Source: "english"}}, h.tr.Calls())
	require.Equal(t, "Bonjour, comment vas-tu aujourd'hui mon ami ?", h.column("french").Text)
	require.Equal(t, "Witaj, jak się dziś masz, mój przyjacielu?", h.column("polish").Text)
	require.Equal(t, greeting, h.column("english").Text)
	require.Equal(t, greeting, h.column("english").LastTranslated)
	require.Equal(t, collab.PhaseIdle, h.s.Phase())

	snap, ok := store.Get("room")
	require.True(t, ok)
	require.Equal(t, "english", snap.ActiveLanguage)
	require.Equal(t, "device-a", snap.Origin)
	require.Equal(t, map[string]string{
		"english": greeting,
		"french":  "Bonjour, comment vas-tu aujourd'hui mon ami ?",
		"polish":  "Witaj, jak się dziś masz, mój przyjacielu?",
	}, snap.Translations)
}

func TestSession_DebounceRestartsOnEveryKeystroke(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")

	h.typeText("english", "Hello there")
	h.advance(500 * time.Millisecond)
	h.s.Keystroke("english", "Hello there, friend")
	h.advance(500 * time.Millisecond)
	require.Empty(t, h.tr.Calls())

	h.advance(250 * time.Millisecond)
	h.flush()
	require.Equal(t, []collabtest.Call{{Text: "Hello there, friend", Source: "english"}}, h.tr.Calls())
}

func TestSession_ShortInputIsNotTranslated(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")

	h.typeText("english", "Hi")
	require.Equal(t, collab.PhaseIdle, h.s.Phase())
	h.advance(time.Second)
	require.Empty(t, h.tr.Calls())

	h.s.Keystroke("english", "Hi.")
	h.advance(750 * time.Millisecond)
	h.flush()
	require.Len(t, h.tr.Calls(), 1)
}

func TestSession_SameTextIsNotTranslatedTwice(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()

	h.s.Keystroke("english", greeting+"  ")
	h.advance(time.Second)
	require.Len(t, h.tr.Calls(), 1)
}

func TestSession_OnlyActiveColumnAcceptsInput(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")

	h.s.Keystroke("english", "nobody selected me")
	h.s.SelectColumn("english")
	h.s.Keystroke("french", "not the active column")
	h.s.SelectColumn("klingon")
	h.settle()

	active := 0
	for _, c := range h.s.Columns() {
		require.Empty(t, c.Text, c.Language)
		if c.Active {
			active++
			require.Equal(t, "english", c.Language)
			require.True(t, c.Focused)
		}
	}
	require.Equal(t, 1, active)

	h.s.SelectColumn("polish")
	h.settle()
	require.False(t, h.column("english").Active)
	require.False(t, h.column("english").Focused)
	require.True(t, h.column("polish").Active)
}

func TestSession_ClearingSourceEmptiesOtherColumnsAtOnce(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-a")

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()
	require.NotEmpty(t, h.column("french").Text)

	h.s.Keystroke("english", "   ")
	h.settle()
	require.Empty(t, h.column("french").Text)
	require.Empty(t, h.column("polish").Text)
	require.Empty(t, h.column("english").LastTranslated)

	h.flush()
	require.Len(t, h.tr.Calls(), 1)
	snap, _ := store.Get("room")
	require.Equal(t, map[string]string{"english": "", "french": "", "polish": ""}, snap.Translations)

	// The same text translates again after a clear.
	h.s.Keystroke("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()
	require.Len(t, h.tr.Calls(), 2)
}

func TestSession_ResultArrivingAfterClearIsDiscarded(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-a")
	h.tr.Hold()

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	require.Eventually(t, func() bool { return len(h.tr.Calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	h.s.Keystroke("english", "")
	h.tr.Release()
	h.flush()

	for _, c := range h.s.Columns() {
		require.Empty(t, c.Text, c.Language)
	}
	require.Empty(t, store.Writes())
}

func TestSession_DroppedCallRetriedAfterInFlightEnds(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")
	h.tr.Hold()

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	require.Eventually(t, func() bool { return len(h.tr.Calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	longer := greeting + " Fine thanks."
	h.s.Keystroke("english", longer)
	h.advance(750 * time.Millisecond)
	require.Equal(t, collab.PhaseTranslating, h.s.Phase())
	require.Len(t, h.tr.Calls(), 1)

	// No keystrokes after this point.
	h.tr.Release()
	require.Eventually(t, func() bool { return h.column("french").Text == "french:"+greeting }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, collab.PhaseDebouncing, h.s.Phase())

	h.advance(750 * time.Millisecond)
	h.flush()
	calls := h.tr.Calls()
	require.Len(t, calls, 2)
	require.Equal(t, longer, calls[1].Text)
	require.Equal(t, longer, h.column("english").LastTranslated)
	require.Equal(t, "french:"+longer, h.column("french").Text)
	require.Equal(t, collab.PhaseIdle, h.s.Phase())

	h.advance(10 * time.Second)
	require.Len(t, h.tr.Calls(), 2)
}

func TestSession_ColumnTypedDuringRequestIsPublishedAsShown(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-a")
	h.tr.Hold()

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	require.Eventually(t, func() bool { return len(h.tr.Calls()) == 1 }, 2*time.Second, 5*time.Millisecond)

	h.typeText("french", "Bonjour")
	h.tr.Release()
	h.flush()

	require.Equal(t, "Bonjour", h.column("french").Text)
	require.Equal(t, "polish:"+greeting, h.column("polish").Text)

	snap, ok := store.Get("room")
	require.True(t, ok)
	require.Equal(t, "french", snap.ActiveLanguage)
	require.Equal(t, map[string]string{
		"english": greeting,
		"french":  "Bonjour",
		"polish":  "polish:" + greeting,
	}, snap.Translations)
}

func TestSession_FailureRaisesNoticeAndKeepsState(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-a")
	h.tr.Respond = func(text, source string) (map[string]string, error) {
		return nil, &collab.ProviderError{Message: "quota exceeded"}
	}

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()

	n := h.notice()
	require.Equal(t, collab.NoticeProvider, n.Kind)
	require.Equal(t, "english", n.Language)
	require.Equal(t, "Translation failed. Please try again.", n.String())
	require.Empty(t, h.column("french").Text)
	require.Equal(t, greeting, h.column("english").Text)
	require.Empty(t, h.column("english").LastTranslated)
	require.Empty(t, store.Writes())

	h.tr.Respond = func(text, source string) (map[string]string, error) {
		return nil, fmt.Errorf("%w: connection refused", collab.ErrNetwork)
	}
	h.s.Keystroke("english", greeting+" Again.")
	h.advance(750 * time.Millisecond)
	h.flush()
	require.Equal(t, collab.NoticeNetwork, h.notice().Kind)
}

func TestSession_ProviderPanicBecomesNotice(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")
	h.tr.Respond = func(text, source string) (map[string]string, error) {
		panic("provider exploded")
	}

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()

	n := h.notice()
	require.Equal(t, collab.NoticeProvider, n.Kind)
	var pe *collab.ProviderError
	require.ErrorAs(t, n.Err, &pe)
	require.Equal(t, collab.PhaseIdle, h.s.Phase())
}

func TestSession_TwoDevicesConverge(t *testing.T) {
	clock := collabtest.NewClock()
	store := collabtest.NewStore()
	a := newHarness(t, clock, store, "device-a")
	b := newHarness(t, clock, store, "device-b")

	a.typeText("english", greeting)
	a.advance(750 * time.Millisecond)
	a.flush()
	b.settle()

	require.Equal(t, "french:"+greeting, b.column("french").Text)
	require.Equal(t, "polish:"+greeting, b.column("polish").Text)
	require.Equal(t, greeting, b.column("english").Text)
	require.True(t, b.column("english").Active)
	require.False(t, b.column("english").Focused)
	require.Empty(t, b.tr.Calls())
	for _, w := range store.Writes() {
		require.Equal(t, "device-a", w.Origin)
	}

	// B takes over in French once A has stopped typing.
	a.s.Blur("english")
	b.typeText("french", "Bonjour tout le monde, comment allez-vous ?")
	b.advance(750 * time.Millisecond)
	b.flush()
	a.settle()

	require.Len(t, b.tr.Calls(), 1)
	require.Len(t, a.tr.Calls(), 1)
	require.True(t, a.column("french").Active)
	require.Equal(t, "Bonjour tout le monde, comment allez-vous ?", a.column("french").Text)
	require.Equal(t, "english:Bonjour tout le monde, comment allez-vous ?", a.column("english").Text)
	require.Equal(t, b.s.Columns()[2].Text, a.s.Columns()[2].Text)
}

func TestSession_ReplayedSnapshotIsIgnored(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-b")

	snap := store.Inject(model.Snapshot{
		Key:            "room",
		Translations:   map[string]string{"english": "one", "french": "un", "polish": "jeden"},
		ActiveLanguage: "french",
		Origin:         "device-x",
	})
	h.settle()
	before := h.s.Columns()
	changes := h.changes.Load()

	store.Deliver(snap)
	h.advance(time.Second)
	store.Deliver(snap)
	h.settle()

	require.Equal(t, before, h.s.Columns())
	require.Equal(t, changes, h.changes.Load())
}

func TestSession_FocusedColumnKeepsTextUntilBlur(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-b")

	h.typeText("english", "Typing")
	store.Inject(model.Snapshot{
		Key:            "room",
		Translations:   map[string]string{"english": "remote english", "french": "remote french"},
		ActiveLanguage: "french",
		Origin:         "device-x",
	})
	h.settle()

	require.Equal(t, "Typing", h.column("english").Text)
	require.Equal(t, "remote french", h.column("french").Text)
	require.True(t, h.column("english").Active, "selection is not taken from a column being edited")

	h.s.Blur("english")
	h.settle()
	require.Equal(t, "remote english", h.column("english").Text)
}

func TestSession_IdleColumnTakesRemoteText(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-b")

	h.typeText("english", "Typing")
	store.Inject(model.Snapshot{
		Key:          "room",
		Translations: map[string]string{"english": "remote english"},
		Origin:       "device-x",
	})
	h.advance(2 * time.Second)
	require.Equal(t, "Typing", h.column("english").Text)

	h.advance(time.Second)
	require.False(t, h.column("english").Focused)
	require.Equal(t, "remote english", h.column("english").Text)
}

func TestSession_RemoteSelectionDoesNotGrantFocus(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-b")

	store.Inject(model.Snapshot{Key: "room", ActiveLanguage: "polish", Origin: "device-x"})
	h.settle()

	c := h.column("polish")
	require.True(t, c.Active)
	require.False(t, c.Focused)

	h.s.Keystroke("polish", "Cześć")
	h.settle()
	require.Equal(t, "Cześć", h.column("polish").Text)
	require.True(t, h.column("polish").Focused)
}

func TestSession_PublishSuppressedWhileApplyingRemote(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-b", func(o *collab.Options) {
		o.Grace = 2 * time.Second
	})

	store.Inject(model.Snapshot{
		Key:          "room",
		Translations: map[string]string{"polish": "dzień dobry"},
		Origin:       "device-x",
	})
	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()

	require.Len(t, h.tr.Calls(), 1)
	require.Equal(t, "french:"+greeting, h.column("french").Text)
	require.Len(t, store.Writes(), 1)

	h.advance(2 * time.Second)
	h.s.Keystroke("english", greeting+" See you soon.")
	h.advance(750 * time.Millisecond)
	h.flush()
	require.Len(t, store.Writes(), 2)
	require.Equal(t, "device-b", store.Writes()[1].Origin)
}

func TestSession_NewestDeferredSnapshotAppliedAfterGrace(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-b")

	for _, text := range []string{"un", "deux", "trois"} {
		store.Inject(model.Snapshot{
			Key:          "room",
			Translations: map[string]string{"french": text},
			Origin:       "device-x",
		})
	}
	h.settle()
	require.Equal(t, "un", h.column("french").Text)

	h.advance(collab.DefaultGrace)
	require.Equal(t, "trois", h.column("french").Text)
}

func TestSession_RemoteTextKeepsCursor(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-b")
	inject := func(text string) {
		store.Inject(model.Snapshot{Key: "room", Translations: map[string]string{"french": text}, Origin: "device-x"})
		h.advance(collab.DefaultGrace)
	}

	inject("abcdef")
	h.s.SetCursor("french", 2)
	inject("abcdefgh")
	require.Equal(t, 2, h.column("french").Cursor)

	h.s.SetCursor("french", 8)
	inject("abcdefghij")
	require.Equal(t, 10, h.column("french").Cursor)

	inject("ab")
	require.Equal(t, 2, h.column("french").Cursor)
}

func TestSession_ScrollFollowsOnlyColumnsAtBottom(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")

	h.s.Scrolled("polish", collab.ScrollMetrics{Offset: 0, ContentHeight: 1000, ViewHeight: 200})
	h.s.Scrolled("french", collab.ScrollMetrics{Offset: 760, ContentHeight: 1000, ViewHeight: 200})
	h.typeText("english", greeting)

	instant, smooth := h.vps["english"].Counts()
	require.Equal(t, 1, instant)
	require.Zero(t, smooth)
	require.False(t, h.column("polish").Scroll.NearBottom)
	require.True(t, h.column("french").Scroll.NearBottom)

	h.advance(750 * time.Millisecond)
	h.flush()

	instant, smooth = h.vps["french"].Counts()
	require.Zero(t, instant)
	require.Equal(t, 1, smooth)
	_, smooth = h.vps["polish"].Counts()
	require.Zero(t, smooth)
	require.Equal(t, "polish:"+greeting, h.column("polish").Text)
}

func TestSession_Reset(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()
	h.s.Keystroke("english", greeting+" More words to send.")
	h.s.Reset()
	h.advance(time.Second)

	require.Len(t, h.tr.Calls(), 1)
	require.Equal(t, collab.PhaseIdle, h.s.Phase())
	for _, c := range h.s.Columns() {
		require.Empty(t, c.Text)
		require.False(t, c.Active)
		require.Equal(t, -1, c.Cursor)
		require.True(t, c.Scroll.NearBottom)
	}
}

func TestNew_Validation(t *testing.T) {
	tr := collabtest.NewTranslator(languages...)
	cases := []struct {
		name string
		opts collab.Options
	}{
		{"one language", collab.Options{Languages: []string{"english"}, Translator: tr}},
		{"duplicate", collab.Options{Languages: []string{"english", "english"}, Translator: tr}},
		{"blank", collab.Options{Languages: []string{"english", " "}, Translator: tr}},
		{"no translator", collab.Options{Languages: languages}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := collab.New(tc.opts)
			require.ErrorIs(t, err, collab.ErrConfiguration)
		})
	}

	s, err := collab.New(collab.Options{Languages: []string{" english", "french "}, Translator: tr})
	require.NoError(t, err)
	defer s.Close()
	require.Equal(t, []string{"english", "french"}, s.Languages())
}

func TestSession_StartWithoutStoreWorksLocally(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")

	err := h.s.Start(context.Background())
	require.ErrorIs(t, err, collab.ErrConfiguration)
	require.True(t, h.s.LocalOnly())
	require.Equal(t, collab.NoticeConfiguration, h.notice().Kind)

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()
	require.Equal(t, "french:"+greeting, h.column("french").Text)
}

func TestSession_StartWithUnreachableStore(t *testing.T) {
	store := collabtest.NewStore()
	store.SubscribeErr = errors.New("dial tcp: connection refused")
	h := newHarness(t, collabtest.NewClock(), nil, "device-a", func(o *collab.Options) {
		o.Transport = store
	})

	require.ErrorIs(t, h.s.Start(context.Background()), collab.ErrConfiguration)
	require.True(t, h.s.LocalOnly())
	require.Equal(t, collab.NoticeConfiguration, h.notice().Kind)
	require.NoError(t, h.s.Start(context.Background()), "second start is a no-op")

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()
	require.NotEmpty(t, h.column("french").Text)
	require.Empty(t, store.Writes())
}

func TestSession_PublishFailureRaisesNetworkNotice(t *testing.T) {
	store := collabtest.NewStore()
	store.PublishErr = errors.New("store unavailable")
	h := newHarness(t, collabtest.NewClock(), store, "device-a")

	h.typeText("english", greeting)
	h.advance(750 * time.Millisecond)
	h.flush()

	n := h.notice()
	require.Equal(t, collab.NoticeNetwork, n.Kind)
	require.Contains(t, n.String(), "store unavailable")
	require.Equal(t, "french:"+greeting, h.column("french").Text)
}

func TestSession_FlushAfterClose(t *testing.T) {
	h := newHarness(t, collabtest.NewClock(), nil, "device-a")
	h.s.Close()
	require.ErrorIs(t, h.s.Flush(context.Background()), collab.ErrClosed)
}

func TestSession_SubmitSkipsDebounce(t *testing.T) {
	store := collabtest.NewStore()
	h := newHarness(t, collabtest.NewClock(), store, "device-a")

	h.s.Submit("polish", "Hej")
	h.flush()

	require.Equal(t, []collabtest.Call{{Text: "Hej", Source: "polish"}}, h.tr.Calls())
	require.Equal(t, "english:Hej", h.column("english").Text)
	require.True(t, h.column("polish").Active)
	snap, ok := store.Get("room")
	require.True(t, ok)
	require.Equal(t, "polish", snap.ActiveLanguage)
	require.Equal(t, 1, h.clock.Pending(), "only the idle timer is left")
}
