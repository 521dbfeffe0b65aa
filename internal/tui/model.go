// Package tui is the terminal front end of a collaborative session: one
// column per language, side by side.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"polyglot/internal/collab"
	"polyglot/internal/config"
)

// Info is shown in the status line.
type Info struct {
	Key  string
	Mode string
}

type column struct {
	lang  string
	title string
	area  textarea.Model
	view  viewport.Model

	text    string
	active  bool
	focused bool
}

// Model is the bubbletea model for a session.
type Model struct {
	session *collab.Session
	hooks   *Hooks
	info    Info
	styles  styles

	columns []*column
	hover   int
	width   int
	height  int
	notice  string
	// owned is the column this device last selected; typing into it resumes
	// editing after the idle timeout dropped focus.
	owned string
}

func New(session *collab.Session, hooks *Hooks, info Info) *Model {
	m := &Model{session: session, hooks: hooks, info: info, styles: defaultStyles()}
	for _, lang := range session.Languages() {
		area := textarea.New()
		area.ShowLineNumbers = false
		area.Placeholder = "Type in " + config.LanguageName(lang) + "..."
		area.CharLimit = 0
		m.columns = append(m.columns, &column{
			lang:  lang,
			title: config.LanguageName(lang),
			area:  area,
			view:  viewport.New(20, 10),
		})
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.hooks.waitChange(),
		m.hooks.waitNotice(),
		func() tea.Msg { return changedMsg{} },
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, m.hooks.waitChange()

	case noticeMsg:
		m.notice = collab.Notice(msg).String()
		return m, m.hooks.waitNotice()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	editing := m.editing()

	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "tab":
		m.hover = (m.hover + 1) % len(m.columns)
		return nil
	case "shift+tab":
		m.hover = (m.hover + len(m.columns) - 1) % len(m.columns)
		return nil
	case "ctrl+r":
		m.notice = ""
		m.session.Reset()
		return nil
	case "esc":
		m.owned = ""
		if editing != nil {
			editing.focused = false
			editing.area.Blur()
			m.session.Blur(editing.lang)
		}
		return nil
	case "ctrl+s":
		if c := m.editing(); c != nil {
			m.session.Submit(c.lang, c.area.Value())
		}
		return nil
	case "pgup", "pgdown":
		m.scroll(m.columns[m.hover], msg.String() == "pgup")
		return nil
	case "enter":
		if editing == nil || editing != m.columns[m.hover] {
			return m.selectColumn(m.columns[m.hover])
		}
	}

	var cmds []tea.Cmd
	if editing == nil {
		if editing = m.resume(); editing == nil {
			return nil
		}
		cmds = append(cmds, editing.area.Focus())
	}
	before := editing.area.Value()
	var cmd tea.Cmd
	editing.area, cmd = editing.area.Update(msg)
	if after := editing.area.Value(); after != before {
		editing.text = after
		m.notice = ""
		m.session.Keystroke(editing.lang, after)
	}
	return tea.Batch(append(cmds, cmd)...)
}

// resume refocuses the owned column if it is still the active one.
func (m *Model) resume() *column {
	for _, c := range m.columns {
		if c.active && c.lang == m.owned {
			c.focused = true
			m.session.Focus(c.lang)
			return c
		}
	}
	return nil
}

// selectColumn takes the column locally right away so keys typed before the
// session reports back land in it.
func (m *Model) selectColumn(c *column) tea.Cmd {
	for _, other := range m.columns {
		other.active, other.focused = other == c, other == c
		if other != c {
			other.area.Blur()
		}
	}
	c.area.SetValue(c.text)
	c.area.CursorEnd()
	m.owned = c.lang
	m.session.SelectColumn(c.lang)
	return c.area.Focus()
}

func (m *Model) editing() *column {
	for _, c := range m.columns {
		if c.active && c.focused {
			return c
		}
	}
	return nil
}

func (m *Model) scroll(c *column, up bool) {
	if c.active {
		return
	}
	step := max(c.view.Height/2, 1)
	if up {
		c.view.LineUp(step)
	} else {
		c.view.LineDown(step)
	}
	m.session.Scrolled(c.lang, collab.ScrollMetrics{
		Offset:        c.view.YOffset,
		ContentHeight: c.view.TotalLineCount(),
		ViewHeight:    c.view.Height,
	})
}

// refresh copies session state into the columns. The column being typed in
// keeps its own buffer: the session never changes it behind the keyboard.
func (m *Model) refresh() {
	for i, c := range m.session.Columns() {
		if i >= len(m.columns) {
			break
		}
		v := m.columns[i]
		local := v.active && v.focused
		v.active, v.focused = c.Active, c.Focused
		if v.lang == m.owned && !c.Active {
			m.owned = ""
		}
		if !local || !c.Focused {
			v.text = c.Text
			if v.area.Value() != c.Text {
				v.area.SetValue(c.Text)
			}
		}
		if !v.focused {
			v.area.Blur()
		}
		v.view.SetContent(m.wrap(v.text, v.view.Width))
		if m.hooks.takeScroll(c.Language) {
			v.view.GotoBottom()
		}
	}
}

func (m *Model) layout() {
	if len(m.columns) == 0 || m.width == 0 {
		return
	}
	frameW, frameH := m.styles.panel.GetFrameSize()
	colWidth := m.width/len(m.columns) - frameW
	bodyHeight := m.height - frameH - 3 // title, status and notice lines
	colWidth, bodyHeight = max(colWidth, 10), max(bodyHeight, 3)

	for _, c := range m.columns {
		c.area.SetWidth(colWidth)
		c.area.SetHeight(bodyHeight)
		c.view.Width = colWidth
		c.view.Height = bodyHeight
	}
}

func (m *Model) wrap(text string, width int) string {
	if text == "" {
		return ""
	}
	return lipgloss.NewStyle().Width(max(width, 1)).Render(text)
}

func (m *Model) View() string {
	panels := make([]string, 0, len(m.columns))
	for i, c := range m.columns {
		title := m.styles.title
		panel := m.styles.panel
		if c.active {
			title = m.styles.titleActive
			panel = m.styles.panelActive
		}
		if i == m.hover {
			title = title.Inherit(m.styles.titleHover)
		}

		body := c.view.View()
		switch {
		case c.active:
			body = c.area.View()
		case c.text == "":
			body = m.styles.placeholder.Render("waiting for text")
		}
		panels = append(panels, panel.Render(lipgloss.JoinVertical(lipgloss.Left, title.Render(c.title), body)))
	}

	sync := m.info.Mode
	if m.session.LocalOnly() {
		sync = "local only"
	}
	status := m.styles.status.Render(fmt.Sprintf("%s · key %s · %s · %s", sync, m.info.Key, m.session.Phase(), "tab move · enter edit · ctrl+s send · esc stop · ctrl+r reset · ctrl+c quit"))

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, panels...))
	b.WriteString("\n")
	b.WriteString(status)
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.notice.Render(m.notice))
	}
	return b.String()
}
