package service

import (
	"context"
	"testing"
	"time"

	"barulogix/internal/core/cache"
	"barulogix/internal/features/packages/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedTestService(t *testing.T, repo *mockRepo, ttl time.Duration) (*PackageService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	svc := NewPackageService(repo, &mockConductors{owned: map[string]bool{"c1": true}}, adapter, ttl)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, mr
}

func statsRepo() *mockRepo {
	return &mockRepo{
		listByOwnerFn: func(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.Package, error) {
			return []domain.Package{
				{Status: domain.StatusDelivered, Type: domain.ShipmentSheinTemu},
				{Status: domain.StatusPending, Type: domain.ShipmentDropi},
			}, nil
		},
	}
}

// TestOwnerStats_ServedFromCache verifies the second snapshot request does not
// hit the repository.
func TestOwnerStats_ServedFromCache(t *testing.T) {
	repo := statsRepo()
	svc, _ := cachedTestService(t, repo, time.Minute)

	first, err := svc.OwnerStats(context.Background(), "owner1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listByOwnerCalls)

	second, err := svc.OwnerStats(context.Background(), "owner1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listByOwnerCalls)
	assert.Equal(t, first.Stats, second.Stats)
}

// TestOwnerStats_CacheExpires verifies the snapshot is recomputed after the TTL.
func TestOwnerStats_CacheExpires(t *testing.T) {
	repo := statsRepo()
	svc, mr := cachedTestService(t, repo, time.Minute)

	_, err := svc.OwnerStats(context.Background(), "owner1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = svc.OwnerStats(context.Background(), "owner1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listByOwnerCalls)
}

// TestOwnerStats_InvalidatedOnCreate verifies a package mutation drops the
// cached snapshot.
func TestOwnerStats_InvalidatedOnCreate(t *testing.T) {
	repo := statsRepo()
	svc, _ := cachedTestService(t, repo, time.Minute)

	_, err := svc.OwnerStats(context.Background(), "owner1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listByOwnerCalls)

	_, err = svc.Create(context.Background(), "owner1", validCreateInput())
	require.NoError(t, err)

	_, err = svc.OwnerStats(context.Background(), "owner1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listByOwnerCalls)
}

// TestOwnerStats_DelayedList verifies the snapshot includes the delayed view.
func TestOwnerStats_DelayedList(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	repo := &mockRepo{
		listByOwnerFn: func(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.Package, error) {
			return []domain.Package{
				{Tracking: "LATE", Status: domain.StatusPending, Type: domain.ShipmentSheinTemu, DueDate: now.AddDate(0, 0, -10)},
				{Tracking: "FRESH", Status: domain.StatusPending, Type: domain.ShipmentSheinTemu, DueDate: now.AddDate(0, 0, -1)},
			}, nil
		},
	}
	svc, _ := cachedTestService(t, repo, time.Minute)

	snap, err := svc.OwnerStats(context.Background(), "owner1")

	require.NoError(t, err)
	require.Len(t, snap.Delayed, 1)
	assert.Equal(t, "LATE", snap.Delayed[0].Tracking)
	assert.Equal(t, 10, snap.Delayed[0].DaysLate)
}
