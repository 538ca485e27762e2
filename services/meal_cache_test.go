package services

import (
	"context"
	"testing"
	"time"

	"backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMealCacheRoundtrip(t *testing.T) {
	ctx := context.Background()
	cache := NewMealCache(NewMemoryBlobStore())
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	meals := []models.MealRecord{
		mealOn("2026-08-29", "Breakfast", 400, 25),
		mealOn("2026-08-29", "Lunch", 650, 40),
	}
	require.NoError(t, cache.Write(ctx, testUser, "2026-08-29", meals, now))

	got, writtenAt, ok := cache.Read(ctx, testUser, "2026-08-29")
	require.True(t, ok)
	assert.Len(t, got, 2)
	assert.Equal(t, "Lunch", got[1].Name)
	assert.True(t, writtenAt.Equal(now))
}

func TestMealCacheMissOnUnknownDate(t *testing.T) {
	cache := NewMealCache(NewMemoryBlobStore())
	_, _, ok := cache.Read(context.Background(), testUser, "2026-08-29")
	assert.False(t, ok)
}

func TestMealCacheKeysAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	cache := NewMealCache(NewMemoryBlobStore())
	now := time.Now()

	require.NoError(t, cache.Write(ctx, testUser, "2026-08-29", nil, now))

	_, _, ok := cache.Read(ctx, testUser+1, "2026-08-29")
	assert.False(t, ok)
}

func TestCorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryBlobStore()
	cache := NewMealCache(blobs)

	require.NoError(t, blobs.Set(ctx, mealKey(testUser, "2026-08-29"), "{not json"))
	require.NoError(t, blobs.Set(ctx, tsKey(testUser, "2026-08-29"), time.Now().Format(time.RFC3339)))

	_, _, ok := cache.Read(ctx, testUser, "2026-08-29")
	assert.False(t, ok)

	// both keys are gone, so the next read is a plain miss
	_, err := blobs.Get(ctx, mealKey(testUser, "2026-08-29"))
	assert.ErrorIs(t, err, ErrBlobNotFound)
	_, err = blobs.Get(ctx, tsKey(testUser, "2026-08-29"))
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestMissingTimestampReadsAsZero(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryBlobStore()
	cache := NewMealCache(blobs)

	require.NoError(t, blobs.Set(ctx, mealKey(testUser, "2026-08-29"), "[]"))

	_, writtenAt, ok := cache.Read(ctx, testUser, "2026-08-29")
	assert.True(t, ok)
	assert.True(t, writtenAt.IsZero())
}

func TestStale(t *testing.T) {
	cache := NewMealCache(NewMemoryBlobStore())
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	assert.True(t, cache.Stale(time.Time{}, false, now, window), "zero timestamp")
	assert.True(t, cache.Stale(now.Add(-time.Minute), true, now, window), "empty list")
	assert.True(t, cache.Stale(now.Add(-6*time.Minute), false, now, window), "past window")
	assert.False(t, cache.Stale(now.Add(-4*time.Minute), false, now, window), "within window")
}

func TestEvictRemovesEntry(t *testing.T) {
	ctx := context.Background()
	cache := NewMealCache(NewMemoryBlobStore())

	require.NoError(t, cache.Write(ctx, testUser, "2026-08-29", []models.MealRecord{mealOn("2026-08-29", "Dinner", 700, 35)}, time.Now()))
	require.NoError(t, cache.Evict(ctx, testUser, "2026-08-29"))

	_, _, ok := cache.Read(ctx, testUser, "2026-08-29")
	assert.False(t, ok)
}

func TestDateKeysListsCachedDates(t *testing.T) {
	ctx := context.Background()
	cache := NewMealCache(NewMemoryBlobStore())
	now := time.Now()

	require.NoError(t, cache.Write(ctx, testUser, "2026-08-27", nil, now))
	require.NoError(t, cache.Write(ctx, testUser, "2026-08-28", nil, now))
	require.NoError(t, cache.MarkCleanup(ctx, testUser, now))

	dates, err := cache.DateKeys(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
	assert.Contains(t, dates, "2026-08-27")
	assert.Contains(t, dates, "2026-08-28")
}

func TestCleanupStamp(t *testing.T) {
	ctx := context.Background()
	cache := NewMealCache(NewMemoryBlobStore())

	_, ok := cache.LastCleanup(ctx, testUser)
	assert.False(t, ok)

	now := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	require.NoError(t, cache.MarkCleanup(ctx, testUser, now))

	ts, ok := cache.LastCleanup(ctx, testUser)
	require.True(t, ok)
	assert.True(t, ts.Equal(now))
}
