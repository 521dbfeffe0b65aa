package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"polyglot/internal/repository"
	"polyglot/internal/repository/testutil"
)

func TestSnapshotRepository_SaveAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSnapshotRepository(db)
	ctx := context.Background()

	got, err := repo.Get(ctx, "room")
	require.NoError(t, err)
	require.Nil(t, got)

	snap := testutil.Snapshot("room", "english", map[string]string{"english": "Hello", "french": "Bonjour"})
	snap.Timestamp = 10
	snap.Origin = "device-a"
	require.NoError(t, repo.Save(ctx, snap))

	got, err = repo.Get(ctx, "room")
	require.NoError(t, err)
	require.Equal(t, snap, *got)
}

func TestSnapshotRepository_SaveReplacesWholeRecord(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSnapshotRepository(db)
	ctx := context.Background()

	first := testutil.Snapshot("room", "english", map[string]string{"english": "Hi", "polish": "Cześć"})
	first.Timestamp = 1
	require.NoError(t, repo.Save(ctx, first))

	second := testutil.Snapshot("room", "french", map[string]string{"french": "Salut"})
	second.Timestamp = 2
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Get(ctx, "room")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"french": "Salut"}, got.Translations)
	require.Equal(t, "french", got.ActiveLanguage)
	require.Equal(t, int64(2), got.Timestamp)
}

func TestSnapshotRepository_DeleteOlderThan(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSnapshotRepository(db)
	ctx := context.Background()

	testutil.SeedSnapshot(t, db, "stale", 1, map[string]string{"english": "old"})
	require.NoError(t, repo.Save(ctx, testutil.Snapshot("fresh", "", map[string]string{})))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	got, err := repo.Get(ctx, "stale")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = repo.Get(ctx, "fresh")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Translations)
}
