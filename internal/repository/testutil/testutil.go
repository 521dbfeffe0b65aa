package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"polyglot/internal/db"
	"polyglot/internal/model"
)

// NewTestDB opens a migrated database in the test's temp dir.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SeedSnapshot writes a snapshot row directly.
func SeedSnapshot(t *testing.T, conn *sql.DB, key string, ts int64, translations map[string]string) {
	t.Helper()
	_, err := conn.ExecContext(context.Background(), `
		INSERT INTO sync_snapshots (key, translations, active_language, timestamp, origin, updated_at)
		VALUES (?, ?, '', ?, '', '2000-01-01T00:00:00.000000000Z')
	`, key, mustJSON(t, translations), ts)
	require.NoError(t, err)
}

// Snapshot builds a snapshot value for assertions.
func Snapshot(key, active string, translations map[string]string) model.Snapshot {
	return model.Snapshot{Key: key, ActiveLanguage: active, Translations: translations}
}
