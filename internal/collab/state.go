package collab

import (
	"strings"
	"unicode/utf8"
)

// ScrollState is the last known scroll position of a column's viewport.
type ScrollState struct {
	Offset     int
	NearBottom bool
}

// Column is one language's text surface and its tracking state.
type Column struct {
	Language string
	Text     string
	// LastTranslated is the last text a translation was issued from (for the
	// source column) or received into (for target columns).
	LastTranslated string
	Active         bool
	// Focused means the local user is editing the column right now. Only the
	// active column can be focused.
	Focused bool
	// Cursor is a rune offset into Text, or -1 when the host does not track it.
	Cursor int
	Scroll ScrollState

	input string // trimmed text last seen by the orchestrator
}

// replace swaps in text that did not come from the local keyboard, keeping
// a tracked cursor at the end if it was there and inside the text otherwise.
func (c *Column) replace(text string) {
	if c.Cursor >= 0 {
		oldLen, newLen := utf8.RuneCountInString(c.Text), utf8.RuneCountInString(text)
		if c.Cursor >= oldLen || c.Cursor > newLen {
			c.Cursor = newLen
		}
	}
	c.Text = text
	c.LastTranslated = text
	c.input = strings.TrimSpace(text)
}

func (c *Column) editing() bool {
	return c.Active && c.Focused
}

// State is the ordered set of columns. Exactly zero or one column is active.
type State struct {
	columns []*Column
	byLang  map[string]*Column
}

func newState(languages []string) *State {
	s := &State{byLang: make(map[string]*Column, len(languages))}
	for _, lang := range languages {
		c := &Column{Language: lang}
		s.columns = append(s.columns, c)
		s.byLang[lang] = c
	}
	s.reset()
	return s
}

func (s *State) column(lang string) *Column {
	return s.byLang[lang]
}

func (s *State) active() *Column {
	for _, c := range s.columns {
		if c.Active {
			return c
		}
	}
	return nil
}

func (s *State) activeLanguage() string {
	if c := s.active(); c != nil {
		return c.Language
	}
	return ""
}

// activate makes lang the only active column. Focus is dropped everywhere;
// callers grant it back when the selection is local.
func (s *State) activate(lang string) *Column {
	target := s.byLang[lang]
	if target == nil {
		return nil
	}
	for _, c := range s.columns {
		c.Active = c == target
		c.Focused = false
	}
	return target
}

// translations returns every column's text keyed by language.
func (s *State) translations() map[string]string {
	out := make(map[string]string, len(s.columns))
	for _, c := range s.columns {
		out[c.Language] = c.Text
	}
	return out
}

func (s *State) views() []Column {
	out := make([]Column, len(s.columns))
	for i, c := range s.columns {
		out[i] = *c
		out[i].input = ""
	}
	return out
}

func (s *State) reset() {
	for _, c := range s.columns {
		*c = Column{
			Language: c.Language,
			Cursor:   -1,
			Scroll:   ScrollState{NearBottom: true},
		}
	}
}
