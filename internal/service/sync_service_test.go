package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"polyglot/internal/model"
	"polyglot/internal/repository"
	"polyglot/internal/repository/mock"
	"polyglot/internal/repository/testutil"
	"polyglot/internal/service"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestSyncService_PublishStampsMonotonicTimestamps(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := service.NewSyncServiceForTest(repository.NewSnapshotRepository(conn), fixedClock(1000))
	ctx := context.Background()

	first, err := svc.Publish(ctx, testutil.Snapshot("room", "french", map[string]string{"french": "Bonjour"}))
	require.NoError(t, err)
	require.Equal(t, int64(1000), first.Timestamp)

	// Same wall clock: the store still orders the second write after the first.
	second, err := svc.Publish(ctx, testutil.Snapshot("room", "english", map[string]string{"english": "Hello"}))
	require.NoError(t, err)
	require.Equal(t, int64(1001), second.Timestamp)

	got, err := svc.Get(ctx, "room")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"english": "Hello"}, got.Translations)
	require.Equal(t, "english", got.ActiveLanguage)
}

func TestSyncService_PublishValidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := service.NewSyncService(mock.NewMockSnapshotRepository(ctrl))

	_, err := svc.Publish(context.Background(), model.Snapshot{Translations: map[string]string{}})
	require.ErrorIs(t, err, service.ErrInvalid)

	_, err = svc.Publish(context.Background(), model.Snapshot{Key: "room"})
	require.ErrorIs(t, err, service.ErrInvalid)
}

func TestSyncService_GetMissing(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockSnapshotRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), "room").Return(nil, nil)
	svc := service.NewSyncService(repo)

	_, err := svc.Get(context.Background(), "room")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestSyncService_Poll(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := service.NewSyncServiceForTest(repository.NewSnapshotRepository(conn), fixedClock(5000))
	ctx := context.Background()

	res, err := svc.Poll(ctx, "room", 0)
	require.NoError(t, err)
	require.False(t, res.Changed)

	_, err = svc.Publish(ctx, testutil.Snapshot("room", "french", map[string]string{"french": "Oui"}))
	require.NoError(t, err)

	res, err = svc.Poll(ctx, "room", 0)
	require.NoError(t, err)
	require.True(t, res.Changed)
	require.Equal(t, "Oui", res.Snapshot.Translations["french"])
	require.Equal(t, int64(5000), res.Timestamp)

	res, err = svc.Poll(ctx, "room", 5000)
	require.NoError(t, err)
	require.False(t, res.Changed)
	require.Nil(t, res.Snapshot)
}

func TestSyncService_SubscribeDeliversNewest(t *testing.T) {
	conn := testutil.NewTestDB(t)
	svc := service.NewSyncService(repository.NewSnapshotRepository(conn))
	ctx := context.Background()

	ch, cancel := svc.Subscribe("room")
	other, cancelOther := svc.Subscribe("elsewhere")
	defer cancelOther()

	for _, text := range []string{"a", "ab", "abc"} {
		_, err := svc.Publish(ctx, testutil.Snapshot("room", "english", map[string]string{"english": text}))
		require.NoError(t, err)
	}

	got := <-ch
	require.Equal(t, "abc", got.Translations["english"])
	select {
	case s := <-other:
		t.Fatalf("unexpected snapshot for other key: %+v", s)
	default:
	}

	cancel()
	cancel()
	_, ok := <-ch
	require.False(t, ok)
}

func TestSyncService_Prune(t *testing.T) {
	conn := testutil.NewTestDB(t)
	testutil.SeedSnapshot(t, conn, "stale", 1, map[string]string{"english": "old"})
	svc := service.NewSyncService(repository.NewSnapshotRepository(conn))

	n, err := svc.Prune(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestCleanupService_PrunesBothStores(t *testing.T) {
	ctrl := gomock.NewController(t)
	snapshots := mock.NewMockSnapshotRepository(ctrl)
	cache := mock.NewMockTranslationCacheRepository(ctrl)
	snapshots.EXPECT().DeleteOlderThan(gomock.Any(), gomock.Any()).Return(int64(2), nil)
	cache.EXPECT().DeleteOlderThan(gomock.Any(), gomock.Any()).Return(int64(3), nil)

	svc := service.NewCleanupService(service.NewSyncService(snapshots), cache, time.Hour)
	require.NoError(t, svc.Cleanup(context.Background()))
}

func TestCleanupService_DisabledRetention(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := service.NewCleanupService(service.NewSyncService(mock.NewMockSnapshotRepository(ctrl)), mock.NewMockTranslationCacheRepository(ctrl), 0)
	require.NoError(t, svc.Cleanup(context.Background()))
}
