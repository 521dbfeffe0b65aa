package ai_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"polyglot/internal/service/ai"
)

var targets = []ai.Target{
	{ID: "english", Name: "English"},
	{ID: "polish", Name: "Polish"},
}

func TestParseBatchResponse_JSON(t *testing.T) {
	got, err := ai.ParseBatchResponse(`{"english": "Hello", "polish": "Cześć"}`, targets)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"english": "Hello", "polish": "Cześć"}, got)
}

func TestParseBatchResponse_FencedJSON(t *testing.T) {
	raw := "Here you go:\n```json\n{\"english\": \"Hello\", \"polish\": \"Cześć\"}\n```"
	got, err := ai.ParseBatchResponse(raw, targets)
	require.NoError(t, err)
	require.Equal(t, "Cześć", got["polish"])
}

func TestParseBatchResponse_KeyedByName(t *testing.T) {
	got, err := ai.ParseBatchResponse(`{"English": "Hello", "Polish": "Cześć"}`, targets)
	require.NoError(t, err)
	require.Equal(t, "Hello", got["english"])
}

func TestParseBatchResponse_NumberedLines(t *testing.T) {
	got, err := ai.ParseBatchResponse("1. Hello\n2) \"Cześć\"", targets)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"english": "Hello", "polish": "Cześć"}, got)
}

func TestParseBatchResponse_MissingTarget(t *testing.T) {
	_, err := ai.ParseBatchResponse(`{"english": "Hello"}`, targets)
	require.ErrorIs(t, err, ai.ErrUnparsableResponse)

	_, err = ai.ParseBatchResponse("just some prose", targets)
	require.ErrorIs(t, err, ai.ErrUnparsableResponse)
}

func TestCleanTranslation(t *testing.T) {
	require.Equal(t, "Bonjour", ai.CleanTranslation("  \"Bonjour\" "))
	require.Equal(t, "Bonjour le monde", ai.CleanTranslation("<b>Bonjour</b> le monde"))
	require.Equal(t, "it's", ai.CleanTranslation("it's"))
	require.Equal(t, "l'été", ai.CleanTranslation("<i>l'été</i>"))
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := ai.NewProvider(ai.Config{Provider: ai.ProviderOpenAI, Model: "m"})
	require.ErrorIs(t, err, ai.ErrMissingAPIKey)

	_, err = ai.NewProvider(ai.Config{Provider: ai.ProviderOpenAI, APIKey: "k"})
	require.ErrorIs(t, err, ai.ErrMissingModel)

	_, err = ai.NewProvider(ai.Config{Provider: ai.ProviderCompatible, APIKey: "k", Model: "m"})
	require.ErrorIs(t, err, ai.ErrMissingBaseURL)

	_, err = ai.NewProvider(ai.Config{Provider: "nope", APIKey: "k", Model: "m"})
	require.ErrorIs(t, err, ai.ErrInvalidProvider)

	p, err := ai.NewProvider(ai.Config{Provider: ai.ProviderGemini, APIKey: "k", Model: "gemini-2.5-flash"})
	require.NoError(t, err)
	require.Equal(t, ai.ProviderGemini, p.Name())
}
