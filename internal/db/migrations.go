package db

import (
	"database/sql"
	"fmt"
)

const baseSchema = `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_snapshots (
  key TEXT PRIMARY KEY,
  translations TEXT NOT NULL,
  active_language TEXT NOT NULL DEFAULT '',
  timestamp INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS translation_cache (
  id INTEGER PRIMARY KEY,
  source_language TEXT NOT NULL,
  target_language TEXT NOT NULL,
  source_hash TEXT NOT NULL,
  text TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_translation_cache_lookup
  ON translation_cache(source_language, target_language, source_hash);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: remember which device wrote the snapshot
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('sync_snapshots') WHERE name = 'origin'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check origin column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE sync_snapshots ADD COLUMN origin TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add origin column: %w", err)
		}
	}

	// Migration 2: retention sweeps scan by age
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_translation_cache_created ON translation_cache(created_at)`); err != nil {
		return fmt.Errorf("create idx_translation_cache_created: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_sync_snapshots_updated ON sync_snapshots(updated_at)`); err != nil {
		return fmt.Errorf("create idx_sync_snapshots_updated: %w", err)
	}

	return nil
}
