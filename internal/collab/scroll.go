package collab

// DefaultScrollThreshold is how close to the bottom, in pixels or rows, a
// viewport counts as following new output.
const DefaultScrollThreshold = 50

// Viewport is the host's scrollable surface for one column. Calls arrive on
// the session goroutine.
type Viewport interface {
	// ScrollToBottom reveals the end of the content; smooth asks for an
	// animated scroll where the host supports one.
	ScrollToBottom(smooth bool)
}

// ScrollMetrics describes a viewport after a manual scroll.
type ScrollMetrics struct {
	Offset        int // distance scrolled from the top
	ContentHeight int
	ViewHeight    int
}

// ScrollCoordinator keeps the typing column pinned to its end and lets
// passive columns follow new text only while their reader is at the bottom.
type ScrollCoordinator struct {
	state     *State
	viewports map[string]Viewport
	threshold int
}

func newScrollCoordinator(state *State, viewports map[string]Viewport, threshold int) *ScrollCoordinator {
	vps := make(map[string]Viewport, len(viewports))
	for lang, vp := range viewports {
		if vp != nil {
			vps[lang] = vp
		}
	}
	return &ScrollCoordinator{state: state, viewports: vps, threshold: threshold}
}

// OnScroll records a manual scroll and recomputes NearBottom.
func (s *ScrollCoordinator) OnScroll(lang string, m ScrollMetrics) {
	c := s.state.column(lang)
	if c == nil {
		return
	}
	below := m.ContentHeight - (m.Offset + m.ViewHeight)
	c.Scroll.Offset = m.Offset
	c.Scroll.NearBottom = below <= s.threshold
}

// PinActiveToBottom snaps the typing column to its end.
func (s *ScrollCoordinator) PinActiveToBottom(lang string) {
	c := s.state.column(lang)
	if c == nil {
		return
	}
	c.Scroll.NearBottom = true
	if vp := s.viewports[lang]; vp != nil {
		vp.ScrollToBottom(false)
	}
}

// AutoScrollIfNearBottom follows new text in a column that was just updated,
// unless its reader had scrolled away. It reports whether it scrolled.
func (s *ScrollCoordinator) AutoScrollIfNearBottom(lang string) bool {
	c := s.state.column(lang)
	if c == nil || !c.Scroll.NearBottom {
		return false
	}
	if vp := s.viewports[lang]; vp != nil {
		vp.ScrollToBottom(true)
	}
	return true
}
