package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"polyglot/internal/repository"
	"polyglot/internal/repository/testutil"
)

func TestSettingsRepository_CRUD(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSettingsRepository(db)
	ctx := context.Background()

	missing, err := repo.Get(ctx, "ai.model")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, repo.Set(ctx, "ai.model", "gemini-2.5-flash"))
	require.NoError(t, repo.Set(ctx, "ai.provider", "gemini"))
	require.NoError(t, repo.Set(ctx, "other", "x"))

	got, err := repo.Get(ctx, "ai.model")
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-flash", got.Value)
	require.False(t, got.UpdatedAt.IsZero())

	list, err := repo.GetByPrefix(ctx, "ai.")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "ai.model", list[0].Key)

	require.NoError(t, repo.Delete(ctx, "ai.model"))
	got, err = repo.Get(ctx, "ai.model")
	require.NoError(t, err)
	require.Nil(t, got)
}
