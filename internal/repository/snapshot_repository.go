package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"polyglot/internal/model"
)

// SnapshotRepository stores one full-replace snapshot per sync key.
type SnapshotRepository interface {
	Get(ctx context.Context, key string) (*model.Snapshot, error)
	Save(ctx context.Context, snapshot model.Snapshot) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type snapshotRepository struct {
	db dbtx
}

func NewSnapshotRepository(db dbtx) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Get(ctx context.Context, key string) (*model.Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT key, translations, active_language, timestamp, origin
		FROM sync_snapshots WHERE key = ?
	`, key)

	var s model.Snapshot
	var translations string
	err := row.Scan(&s.Key, &translations, &s.ActiveLanguage, &s.Timestamp, &s.Origin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(translations), &s.Translations); err != nil {
		return nil, fmt.Errorf("decode translations: %w", err)
	}
	if s.Translations == nil {
		s.Translations = map[string]string{}
	}
	return &s, nil
}

// Save replaces the stored snapshot for snapshot.Key as a whole.
func (r *snapshotRepository) Save(ctx context.Context, snapshot model.Snapshot) error {
	translations := snapshot.Translations
	if translations == nil {
		translations = map[string]string{}
	}
	encoded, err := json.Marshal(translations)
	if err != nil {
		return fmt.Errorf("encode translations: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sync_snapshots (key, translations, active_language, timestamp, origin, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		  translations = excluded.translations,
		  active_language = excluded.active_language,
		  timestamp = excluded.timestamp,
		  origin = excluded.origin,
		  updated_at = excluded.updated_at
	`, snapshot.Key, string(encoded), snapshot.ActiveLanguage, snapshot.Timestamp, snapshot.Origin, formatTime(time.Now()))
	return err
}

func (r *snapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sync_snapshots WHERE updated_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
