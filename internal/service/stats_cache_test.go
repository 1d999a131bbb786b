package service

import (
	"context"
	"testing"

	"telemed-appointments/internal/domain/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatsCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := logrus.New()
	return NewStatsCache(client, log), mr
}

func TestStatsCache_SetGet(t *testing.T) {
	cache, _ := newTestStatsCache(t)
	ctx := context.Background()

	counts := &entity.StatusCounts{Total: 5, Pending: 2, Confirmed: 3}
	cache.Set(ctx, entity.RolePatient, "patient-1", counts)

	got, hit := cache.Get(ctx, entity.RolePatient, "patient-1")
	require.True(t, hit)
	assert.Equal(t, counts, got)
}

func TestStatsCache_Miss(t *testing.T) {
	cache, _ := newTestStatsCache(t)

	got, hit := cache.Get(context.Background(), entity.RolePatient, "nobody")
	assert.False(t, hit)
	assert.Nil(t, got)
}

func TestStatsCache_KeysAreScopedByRole(t *testing.T) {
	cache, _ := newTestStatsCache(t)
	ctx := context.Background()

	cache.Set(ctx, entity.RolePatient, "user-1", &entity.StatusCounts{Total: 1})
	cache.Set(ctx, entity.RoleProvider, "user-1", &entity.StatusCounts{Total: 9})

	patientCounts, hit := cache.Get(ctx, entity.RolePatient, "user-1")
	require.True(t, hit)
	assert.Equal(t, int64(1), patientCounts.Total)

	providerCounts, hit := cache.Get(ctx, entity.RoleProvider, "user-1")
	require.True(t, hit)
	assert.Equal(t, int64(9), providerCounts.Total)
}

func TestStatsCache_Invalidate(t *testing.T) {
	cache, _ := newTestStatsCache(t)
	ctx := context.Background()

	cache.Set(ctx, entity.RolePatient, "patient-1", &entity.StatusCounts{Total: 1})
	cache.Set(ctx, entity.RoleProvider, "provider-1", &entity.StatusCounts{Total: 2})

	cache.Invalidate(ctx, "patient-1", "provider-1")

	_, hit := cache.Get(ctx, entity.RolePatient, "patient-1")
	assert.False(t, hit)
	_, hit = cache.Get(ctx, entity.RoleProvider, "provider-1")
	assert.False(t, hit)
}

func TestStatsCache_CorruptEntryIsDropped(t *testing.T) {
	cache, mr := newTestStatsCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("appointments:stats:patient:patient-1", "not-json"))

	_, hit := cache.Get(ctx, entity.RolePatient, "patient-1")
	assert.False(t, hit)
	assert.False(t, mr.Exists("appointments:stats:patient:patient-1"))
}
