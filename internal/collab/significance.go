package collab

import (
	"strings"
	"unicode/utf8"
)

// SignificancePolicy decides whether typed text has grown enough since the
// last translation to justify another provider call. Zero fields disable
// their rule. Sentence boundaries are Latin-script punctuation by default;
// set Boundaries for other scripts (e.g. "。！？").
type SignificancePolicy struct {
	// MinAppendedChars is the number of runes appended since the last
	// translated text that always triggers a call.
	MinAppendedChars int
	// TailSentenceChars triggers a call once the unfinished last sentence
	// reaches this many runes.
	TailSentenceChars int
	// Boundaries are the runes that end a sentence.
	Boundaries string
}

// DefaultSignificancePolicy returns the policy used when none is configured.
func DefaultSignificancePolicy() SignificancePolicy {
	return SignificancePolicy{
		MinAppendedChars:  10,
		TailSentenceChars: 40,
		Boundaries:        ".!?",
	}
}

func (p SignificancePolicy) isZero() bool {
	return p == SignificancePolicy{}
}

// Significant reports whether text, the current trimmed input, warrants a
// translation. prev is the previous trimmed input and lastSent the last text
// translated from this column.
func (p SignificancePolicy) Significant(prev, lastSent, text string) bool {
	// Deletions and edits always retranslate.
	if utf8.RuneCountInString(text) < utf8.RuneCountInString(prev) {
		return true
	}
	if !strings.HasPrefix(text, lastSent) {
		return true
	}

	appended := text[len(lastSent):]
	if p.MinAppendedChars > 0 && utf8.RuneCountInString(appended) >= p.MinAppendedChars {
		return true
	}
	if p.Boundaries != "" && strings.ContainsAny(appended, p.Boundaries) {
		return true
	}
	if p.TailSentenceChars > 0 && utf8.RuneCountInString(p.tail(text)) >= p.TailSentenceChars {
		return true
	}
	return false
}

// tail returns the text after the last sentence boundary.
func (p SignificancePolicy) tail(text string) string {
	if p.Boundaries == "" {
		return text
	}
	if i := strings.LastIndexAny(text, p.Boundaries); i >= 0 {
		_, size := utf8.DecodeRuneInString(text[i:])
		return strings.TrimSpace(text[i+size:])
	}
	return text
}
