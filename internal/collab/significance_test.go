package collab_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"polyglot/internal/collab"
)

func TestSignificancePolicy(t *testing.T) {
	p := collab.DefaultSignificancePolicy()

	tests := []struct {
		name     string
		prev     string
		lastSent string
		text     string
		want     bool
	}{
		{"short start", "H", "", "Hi", false},
		{"ten appended runes", "Hello ther", "", "Hello there", true},
		{"sentence completed", "Hi", "", "Hi.", true},
		{"question mark", "Ça va", "", "Ça va?", true},
		{"few runes after sent text", "Hello there. Ho", "Hello there.", "Hello there. How", false},
		{"deletion", "Hello there", "Hello there", "Hello ther", true},
		{"edit before sent tail", "Hello there", "Hello there", "Hallo there!", true},
		{"tail below threshold", "", "Done. " + strings.Repeat("a", 38), "Done. " + strings.Repeat("a", 39), false},
		{"tail reaches threshold", "", strings.Repeat("a", 39), strings.Repeat("a", 40), true},
		{"multibyte counted as runes", "", "", "zażółć gęś", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, p.Significant(tt.prev, tt.lastSent, tt.text))
		})
	}
}

func TestSignificancePolicy_CustomBoundaries(t *testing.T) {
	p := collab.SignificancePolicy{Boundaries: "。"}
	require.True(t, p.Significant("你好", "", "你好。"))
	require.False(t, p.Significant("你", "", "你好"))
}
