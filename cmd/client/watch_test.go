package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"polyglot/internal/model"
)

func TestPrintSnapshot_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(&buf, []string{"french", "english"}, model.Snapshot{
		Timestamp:      42,
		ActiveLanguage: "english",
		Translations: map[string]string{
			"english": "Good morning",
			"german":  "Guten Morgen",
			"french":  "Bonjour",
		},
	})

	require.Equal(t, "--- 42 typing in English\nFrench: Bonjour\nEnglish: Good morning\nGerman: Guten Morgen\n", buf.String())
}
