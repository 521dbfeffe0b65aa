package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"polyglot/internal/model"
	"polyglot/internal/snowflake"
)

// TranslationCacheRepository caches provider output per (source, target, text).
type TranslationCacheRepository interface {
	Get(ctx context.Context, sourceLanguage, targetLanguage, text string) (*model.CachedTranslation, error)
	Save(ctx context.Context, sourceLanguage, targetLanguage, text, translated string) error
	DeleteAll(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type translationCacheRepository struct {
	db dbtx
}

func NewTranslationCacheRepository(db dbtx) TranslationCacheRepository {
	return &translationCacheRepository{db: db}
}

// HashText is the cache key for a source text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (r *translationCacheRepository) Get(ctx context.Context, sourceLanguage, targetLanguage, text string) (*model.CachedTranslation, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, source_language, target_language, source_hash, text, created_at
		 FROM translation_cache WHERE source_language = ? AND target_language = ? AND source_hash = ?`,
		sourceLanguage, targetLanguage, HashText(text),
	)

	var c model.CachedTranslation
	var createdAt string
	err := row.Scan(&c.ID, &c.SourceLanguage, &c.TargetLanguage, &c.SourceHash, &c.Text, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.CreatedAt, _ = parseTime(createdAt)
	return &c, nil
}

func (r *translationCacheRepository) Save(ctx context.Context, sourceLanguage, targetLanguage, text, translated string) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO translation_cache (id, source_language, target_language, source_hash, text, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_language, target_language, source_hash) DO UPDATE SET
		   text = excluded.text,
		   created_at = excluded.created_at`,
		snowflake.NextID(), sourceLanguage, targetLanguage, HashText(text), translated, formatTime(time.Now()),
	)
	return err
}

func (r *translationCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM translation_cache`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *translationCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM translation_cache WHERE created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
