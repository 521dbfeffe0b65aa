package collab

import (
	"time"
	"unicode/utf8"

	"polyglot/internal/logger"
)

// DefaultIdleTimeout is how long after the last keystroke a focused column
// stops counting as being edited.
const DefaultIdleTimeout = 3 * time.Second

// InputController gates keystrokes to the single active column and tracks
// local focus.
type InputController struct {
	rt     *runtime
	state  *State
	orch   *Orchestrator
	scroll *ScrollCoordinator
	bridge *SyncBridge
	idle   time.Duration

	idleTimer Timer
	idleSeq   uint64
}

// SelectColumn makes lang the only editable column and gives it focus.
// Unknown languages are ignored.
func (c *InputController) SelectColumn(lang string) {
	prev := c.state.active()
	col := c.state.activate(lang)
	if col == nil {
		return
	}
	col.Focused = true
	if prev != nil && prev != col {
		c.bridge.releaseParked(prev.Language)
	}
	c.rt.changed()
}

// selectFromRemote follows another device's column selection. Focus stays
// where it is: nothing on this device is being typed into.
func (c *InputController) selectFromRemote(lang string) {
	if c.state.activate(lang) != nil {
		logger.Debug("active column changed remotely", "module", "collab", "action", "select", "resource", "column", "result", "ok", "language", lang)
	}
}

// OnKeystroke accepts newText for lang if it is the active column and
// reports whether it did.
func (c *InputController) OnKeystroke(lang, newText string) bool {
	col := c.state.column(lang)
	if col == nil || !col.Active {
		logger.Debug("keystroke rejected on inactive column", "module", "collab", "action", "input", "resource", "column", "result", "skipped", "language", lang)
		return false
	}

	col.Text = newText
	col.Focused = true
	if n := utf8.RuneCountInString(newText); col.Cursor > n {
		col.Cursor = n
	}
	c.scroll.PinActiveToBottom(lang)
	c.armIdle(lang)
	c.rt.changed()
	c.orch.HandleInput(newText, lang)
	return true
}

// SetCursor records the host's cursor position as a rune offset; negative
// stops tracking.
func (c *InputController) SetCursor(lang string, offset int) {
	col := c.state.column(lang)
	if col == nil {
		return
	}
	if offset < 0 {
		col.Cursor = -1
		return
	}
	col.Cursor = min(offset, utf8.RuneCountInString(col.Text))
}

// SetFocus records host focus changes. Only the active column can take
// focus; losing it applies any remote text held back meanwhile.
func (c *InputController) SetFocus(lang string, focused bool) {
	col := c.state.column(lang)
	if col == nil {
		return
	}
	if focused {
		if col.Active && !col.Focused {
			col.Focused = true
			c.rt.changed()
		}
		return
	}
	if col.Focused {
		col.Focused = false
		c.rt.changed()
	}
	c.bridge.releaseParked(lang)
}

func (c *InputController) armIdle(lang string) {
	if c.idle <= 0 {
		return
	}
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleSeq++
	seq := c.idleSeq
	c.idleTimer = c.rt.clock.AfterFunc(c.idle, func() {
		c.rt.post(func() {
			if seq != c.idleSeq {
				return
			}
			c.idleTimer = nil
			c.SetFocus(lang, false)
		})
	})
}

func (c *InputController) reset() {
	c.idleSeq++
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}
