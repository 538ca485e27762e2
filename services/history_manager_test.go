package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/models"
	"backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestHistory builds a tracker + history pair pinned to a fixed clock.
func newTestHistory(t *testing.T, store *fakeMealStore, now time.Time) (*HistoryManager, *DailyTracker, *MealCache) {
	t.Helper()
	cache := NewMealCache(NewMemoryBlobStore())
	tr := NewDailyTracker(store, cache, nil, zap.NewNop())
	tr.now = func() time.Time { return now }
	tr.StartSession(context.Background(), testUser)

	h := NewHistoryManager(testUser, store, cache, tr, zap.NewNop())
	h.now = tr.now
	return h, tr, cache
}

func daysBack(now time.Time, n int) string {
	return utils.LocalDate(now.AddDate(0, 0, -n))
}

func TestLoadMealHistoryIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, _ := newTestHistory(t, store, now)

	d1, d2 := daysBack(now, 2), daysBack(now, 3)
	store.seed(d1, mealOn(d1, "pasta", 650, 20))

	h.LoadMealHistory(context.Background(), []string{d1, d2})
	assert.Equal(t, 1, store.calls(d1))
	assert.Equal(t, 1, store.calls(d2))

	// overlapping second call does zero fetches
	h.LoadMealHistory(context.Background(), []string{d1, d2})
	assert.Equal(t, 1, store.calls(d1))
	assert.Equal(t, 1, store.calls(d2))
}

func TestLoadMealHistoryDeduplicatesInput(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, _ := newTestHistory(t, store, now)

	d := daysBack(now, 5)
	h.LoadMealHistory(context.Background(), []string{d, d, d})
	assert.Equal(t, 1, store.calls(d))
}

func TestFailedDateDoesNotAbortBatch(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, _ := newTestHistory(t, store, now)
	ctx := context.Background()

	d1, d2, d3 := daysBack(now, 1), daysBack(now, 2), daysBack(now, 3)
	store.seed(d1, mealOn(d1, "eggs", 200, 14))
	store.seed(d3, mealOn(d3, "soup", 180, 6))
	store.failDates[d2] = errors.New("flaky")

	h.LoadMealHistory(ctx, []string{d1, d2, d3})

	m1, err := h.GetMealsForDate(ctx, d1)
	require.NoError(t, err)
	assert.Len(t, m1, 1)
	m3, err := h.GetMealsForDate(ctx, d3)
	require.NoError(t, err)
	assert.Len(t, m3, 1)

	// the failed date stays unloaded and is retried on the next request
	delete(store.failDates, d2)
	h.LoadMealHistory(ctx, []string{d2})
	assert.Equal(t, 2, store.calls(d2))
}

func TestTodayComesFromTracker(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	today := utils.LocalDate(now)
	store.seed(today, mealOn(today, "lunch", 540, 28))

	h, tr, _ := newTestHistory(t, store, now)
	fetches := store.calls(today)

	meals, err := h.GetMealsForDate(context.Background(), today)
	require.NoError(t, err)
	assert.Len(t, meals, 1)
	// no duplicate fetch: the tracker's in-memory list is the source
	assert.Equal(t, fetches, store.calls(today))

	_, trackerMeals, _ := tr.Snapshot()
	assert.Equal(t, trackerMeals, meals)
}

func TestRecentDatesArePersistedOldOnesAreNot(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, cache := newTestHistory(t, store, now)
	ctx := context.Background()

	recent, old := daysBack(now, 3), daysBack(now, 20)
	store.seed(recent, mealOn(recent, "wrap", 380, 18))
	store.seed(old, mealOn(old, "burger", 800, 30))

	h.LoadMealHistory(ctx, []string{recent, old})

	_, _, ok := cache.Read(ctx, testUser, recent)
	assert.True(t, ok, "recent date should be persisted")
	_, _, ok = cache.Read(ctx, testUser, old)
	assert.False(t, ok, "old date should stay memory-only")
}

func TestCachePrefillDoesNotReplaceRemoteRead(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, cache := newTestHistory(t, store, now)
	ctx := context.Background()

	d := daysBack(now, 2)
	require.NoError(t, cache.Write(ctx, testUser, d, []models.MealRecord{mealOn(d, "stale cached", 999, 1)}, now))
	store.seed(d, mealOn(d, "authoritative", 400, 20))

	h.LoadMealHistory(ctx, []string{d})

	// the remote read still happened and won
	assert.Equal(t, 1, store.calls(d))
	meals, err := h.GetMealsForDate(ctx, d)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "authoritative", meals[0].Name)
}

func TestNutritionTotalsForDate(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, _ := newTestHistory(t, store, now)

	d := daysBack(now, 4)
	store.seed(d,
		models.MealRecord{ID: uuid.New(), UserID: testUser, MealDate: d, Name: "a", Calories: 300, Protein: 20, Carbs: 30, Fat: 8, Fiber: 4, Sugar: 6, Sodium: 500},
		models.MealRecord{ID: uuid.New(), UserID: testUser, MealDate: d, Name: "b", Calories: 450, Protein: 35, Carbs: 12, Fat: 20, Fiber: 2, Sugar: 1, Sodium: 700},
	)

	totals, err := h.GetNutritionTotalsForDate(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 750, totals.Calories)
	assert.Equal(t, 55.0, totals.Protein)
	assert.Equal(t, 42.0, totals.Carbs)
	assert.Equal(t, 1200.0, totals.Sodium)
	assert.Equal(t, 2, totals.MealCount)
}

func TestWeeklyAverageIsDilutedByUntrackedDays(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, _ := newTestHistory(t, store, now)

	start, end := daysBack(now, 7), daysBack(now, 1) // 7 past days
	d1, d2 := daysBack(now, 6), daysBack(now, 3)
	store.seed(d1, mealOn(d1, "only meal", 100, 5))
	store.seed(d2, mealOn(d2, "other meal", 200, 10))

	sum, err := h.GetWeeklyNutritionSummary(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 7, sum.Days)
	assert.Equal(t, 2, sum.DaysTracked)
	assert.Equal(t, 300, sum.Totals.Calories)
	// divided by the full range, not by tracked days: 300/7 -> 43, not 150
	assert.Equal(t, 43, sum.AverageDaily.Calories)
}

func TestWeeklySummaryRejectsBadRange(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, _ := newTestHistory(t, store, now)

	_, err := h.GetWeeklyNutritionSummary(context.Background(), "2025-06-10", "2025-06-01")
	assert.Error(t, err)
}

func TestCleanupRemovesOnlyExpiredEntries(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, cache := newTestHistory(t, store, now)
	ctx := context.Background()

	oldDate := daysBack(now, 31)
	keptDate := daysBack(now, 29)
	require.NoError(t, cache.Write(ctx, testUser, oldDate, nil, now))
	require.NoError(t, cache.Write(ctx, testUser, keptDate, nil, now))

	h.CleanupOldCache(ctx)

	_, _, ok := cache.Read(ctx, testUser, oldDate)
	assert.False(t, ok)
	_, _, ok = cache.Read(ctx, testUser, keptDate)
	assert.True(t, ok)
}

func TestCleanupRunsAtMostOncePerDay(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	store := newFakeMealStore()
	h, _, cache := newTestHistory(t, store, now)
	ctx := context.Background()

	h.CleanupOldCache(ctx)

	// a newly expired entry survives because the daily guard is set
	expired := daysBack(now, 40)
	require.NoError(t, cache.Write(ctx, testUser, expired, nil, now))
	h.CleanupOldCache(ctx)
	_, _, ok := cache.Read(ctx, testUser, expired)
	assert.True(t, ok)

	// a day later the sweep runs again
	h.now = func() time.Time { return now.Add(25 * time.Hour) }
	h.CleanupOldCache(ctx)
	_, _, ok = cache.Read(ctx, testUser, expired)
	assert.False(t, ok)
}
