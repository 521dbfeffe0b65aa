package ai_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"polyglot/internal/service/ai"
)

func TestWrapInput(t *testing.T) {
	require.Equal(t, "<input>\ntest content\n</input>", ai.WrapInput("test content"))
}

func TestGetTranslateBatchPrompt_ListsTargets(t *testing.T) {
	prompt := ai.GetTranslateBatchPrompt("French", []ai.Target{
		{ID: "english", Name: "English"},
		{ID: "polish", Name: "Polish"},
	})
	require.Contains(t, prompt, "<source_language>French</source_language>")
	require.Contains(t, prompt, `<target id="english">English</target>`)
	require.Contains(t, prompt, `<target id="polish">Polish</target>`)
	require.Contains(t, prompt, `{"english": "...", "polish": "..."}`)
}

func TestGetTranslateTextPrompt(t *testing.T) {
	prompt := ai.GetTranslateTextPrompt("Polish", "English")
	require.Contains(t, prompt, "<source_language>Polish</source_language>")
	require.Contains(t, prompt, "<target_language>English</target_language>")
	require.Contains(t, prompt, "<input>")
}
