package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"polyglot/internal/collab"
)

type changedMsg struct{}

type noticeMsg collab.Notice

// Hooks carry session callbacks into the program without blocking the
// session goroutine: changes coalesce into one pending signal and notices
// beyond the buffer are dropped.
type Hooks struct {
	changed chan struct{}
	notices chan collab.Notice
	scrolls map[string]*viewportHook
}

func NewHooks(languages []string) *Hooks {
	h := &Hooks{
		changed: make(chan struct{}, 1),
		notices: make(chan collab.Notice, 8),
		scrolls: make(map[string]*viewportHook, len(languages)),
	}
	for _, lang := range languages {
		h.scrolls[lang] = &viewportHook{}
	}
	return h
}

// Apply installs the hooks on session options.
func (h *Hooks) Apply(opts *collab.Options) {
	opts.OnChange = h.onChange
	opts.OnNotice = h.onNotice
	opts.Viewports = make(map[string]collab.Viewport, len(h.scrolls))
	for lang, vp := range h.scrolls {
		opts.Viewports[lang] = vp
	}
}

func (h *Hooks) onChange() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

func (h *Hooks) onNotice(n collab.Notice) {
	select {
	case h.notices <- n:
	default:
	}
	h.onChange()
}

func (h *Hooks) waitChange() tea.Cmd {
	return func() tea.Msg {
		<-h.changed
		return changedMsg{}
	}
}

func (h *Hooks) waitNotice() tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-h.notices)
	}
}

// takeScroll reports whether the session asked lang's viewport to follow
// its end since the last call.
func (h *Hooks) takeScroll(lang string) bool {
	vp := h.scrolls[lang]
	return vp != nil && vp.pending.Swap(false)
}

// viewportHook records scroll requests; the program applies them on its
// next refresh.
type viewportHook struct {
	pending atomic.Bool
}

func (v *viewportHook) ScrollToBottom(smooth bool) {
	v.pending.Store(true)
}
