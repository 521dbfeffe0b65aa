package ai

import (
	"encoding/json"
	"errors"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrUnparsableResponse is returned when a batch response matches no known layout.
var ErrUnparsableResponse = errors.New("unparsable translation response")

var (
	fencePattern    = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	numberedPattern = regexp.MustCompile(`^\s*(\d+)[.)]\s*(.*)$`)
	stripPolicy     = bluemonday.StrictPolicy()
)

// ParseBatchResponse extracts one translation per target from a model
// response. It accepts a bare JSON object, a fenced JSON object, or a
// numbered list in target order. Missing targets are an error.
func ParseBatchResponse(raw string, targets []Target) (map[string]string, error) {
	raw = strings.TrimSpace(raw)

	if obj, ok := parseObject(raw); ok {
		return collect(obj, targets)
	}
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		if obj, ok := parseObject(m[1]); ok {
			return collect(obj, targets)
		}
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		if obj, ok := parseObject(raw[start : end+1]); ok {
			return collect(obj, targets)
		}
	}
	return parseNumbered(raw, targets)
}

func parseObject(raw string) (map[string]string, bool) {
	var obj map[string]string
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func collect(obj map[string]string, targets []Target) (map[string]string, error) {
	out := make(map[string]string, len(targets))
	for _, t := range targets {
		v, ok := obj[t.ID]
		if !ok {
			// Models sometimes key by display name instead of ID.
			v, ok = obj[t.Name]
		}
		if !ok {
			return nil, ErrUnparsableResponse
		}
		out[t.ID] = CleanTranslation(v)
	}
	return out, nil
}

func parseNumbered(raw string, targets []Target) (map[string]string, error) {
	byIndex := make(map[int]string)
	for _, line := range strings.Split(raw, "\n") {
		m := numberedPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		byIndex[n] = m[2]
	}

	out := make(map[string]string, len(targets))
	for i, t := range targets {
		v, ok := byIndex[i+1]
		if !ok {
			return nil, ErrUnparsableResponse
		}
		out[t.ID] = CleanTranslation(v)
	}
	return out, nil
}

// CleanTranslation trims whitespace and wrapping quotes and strips any
// markup the model echoed back.
func CleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	if strings.ContainsAny(s, "<>") {
		s = html.UnescapeString(stripPolicy.Sanitize(s))
	}
	return s
}
