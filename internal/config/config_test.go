package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"polyglot/internal/config"
)

func TestParseLanguages(t *testing.T) {
	require.Equal(t, []string{"german", "english"}, config.ParseLanguages(" German, english,,german "))
	require.Equal(t, config.DefaultLanguages, config.ParseLanguages(""))
}

func TestLanguageName(t *testing.T) {
	require.Equal(t, "Polish", config.LanguageName("polish"))
	require.Equal(t, "Klingon", config.LanguageName("klingon"))
	require.Equal(t, "", config.LanguageName(""))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POLYGLOT_DATA_DIR", "/tmp/pg")
	t.Setenv("POLYGLOT_RETENTION", "48h")

	cfg := config.Load()
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, filepath.Join("/tmp/pg", "polyglot.db"), cfg.DBPath)
	require.Equal(t, 48*time.Hour, cfg.Retention)
	require.Equal(t, []string{"french", "english", "polish"}, cfg.Languages)
}

func TestLoadClient_DurationFormats(t *testing.T) {
	t.Setenv("POLYGLOT_DEBOUNCE", "1200")
	t.Setenv("POLYGLOT_SYNC_GRACE", "250ms")
	t.Setenv("POLYGLOT_SERVER_URL", "http://example.test/")

	cfg := config.LoadClient()
	require.Equal(t, 1200*time.Millisecond, cfg.Debounce)
	require.Equal(t, 250*time.Millisecond, cfg.SyncGrace)
	require.Equal(t, "http://example.test", cfg.ServerURL)
	require.Equal(t, config.SyncModeEvents, cfg.SyncMode)
}
