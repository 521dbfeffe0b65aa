package collabtest

import (
	"context"
	"fmt"
	"sync"
)

// Call is one recorded provider request.
type Call struct {
	Text   string
	Source string
}

// Translator records calls and answers with Respond, or with "<lang>:<text>"
// for every other language when Respond is nil.
type Translator struct {
	Languages []string
	Respond   func(text, source string) (map[string]string, error)

	mu    sync.Mutex
	calls []Call
	gate  chan struct{}
}

func NewTranslator(languages ...string) *Translator {
	return &Translator{Languages: languages}
}

func (t *Translator) Translate(ctx context.Context, text, source string) (map[string]string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, Call{Text: text, Source: source})
	gate := t.gate
	respond := t.Respond
	t.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if respond != nil {
		return respond(text, source)
	}
	out := make(map[string]string, len(t.Languages))
	for _, lang := range t.Languages {
		if lang != source {
			out[lang] = fmt.Sprintf("%s:%s", lang, text)
		}
	}
	return out, nil
}

// Hold makes later calls block until Release.
func (t *Translator) Hold() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gate = make(chan struct{})
}

// Release unblocks held calls.
func (t *Translator) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gate != nil {
		close(t.gate)
		t.gate = nil
	}
}

func (t *Translator) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}
