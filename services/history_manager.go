package services

import (
	"context"
	"math"
	"sync"
	"time"

	"backend/models"
	"backend/utils"

	"go.uber.org/zap"
)

const (
	historyBatchSize  = 5
	historyBatchDelay = 100 * time.Millisecond

	// Only this many days back are persisted to the blob cache; older
	// history is fetched on demand and kept in memory for the session.
	historyCacheDays = 7

	// Persisted entries older than this are removed by the daily sweep.
	historyRetentionDays = 30

	cleanupInterval = 24 * time.Hour
)

// HistoryManager serves meals and totals for arbitrary past dates without
// ever loading full history eagerly. Dates load once per session; repeat
// requests are answered from memory.
type HistoryManager struct {
	store   MealStore
	cache   *MealCache
	tracker *DailyTracker
	log     *zap.Logger

	now    func() time.Time
	userID uint

	mu     sync.Mutex
	loaded map[string][]models.MealRecord
}

func NewHistoryManager(userID uint, store MealStore, cache *MealCache, tracker *DailyTracker, log *zap.Logger) *HistoryManager {
	return &HistoryManager{
		store:   store,
		cache:   cache,
		tracker: tracker,
		log:     log,
		now:     time.Now,
		userID:  userID,
		loaded:  make(map[string][]models.MealRecord),
	}
}

// GetMealsForDate resolves one date. Today always comes straight from the
// tracker's in-memory list so there is a single source of truth for the
// current day.
func (h *HistoryManager) GetMealsForDate(ctx context.Context, date string) ([]models.MealRecord, error) {
	if today, meals, _ := h.tracker.Snapshot(); date == today {
		return meals, nil
	}

	h.mu.Lock()
	meals, ok := h.loaded[date]
	h.mu.Unlock()
	if ok {
		return meals, nil
	}

	h.LoadMealHistory(ctx, []string{date})

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded[date], nil
}

// LoadMealHistory fetches a batch of dates. Dates already loaded this
// session are skipped, so overlapping calls do no redundant work. Recent
// dates get an optimistic cache pre-fill, but every requested date is
// always fetched from the store as well: the cache never substitutes for
// the authoritative read. Fetches run in fixed-size parallel batches with
// a short pause in between; one date failing never aborts the rest.
func (h *HistoryManager) LoadMealHistory(ctx context.Context, dates []string) {
	today, _, _ := h.tracker.Snapshot()

	var pending []string
	seen := make(map[string]struct{})
	h.mu.Lock()
	for _, d := range dates {
		if d == today {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		if _, ok := h.loaded[d]; ok {
			continue
		}
		pending = append(pending, d)
	}
	h.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	now := h.now()
	for _, d := range pending {
		if !h.cacheable(d, now) {
			continue
		}
		if cached, _, ok := h.cache.Read(ctx, h.userID, d); ok {
			h.mu.Lock()
			h.loaded[d] = cached
			h.mu.Unlock()
		}
	}

	for start := 0; start < len(pending); start += historyBatchSize {
		end := start + historyBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		var wg sync.WaitGroup
		for _, d := range pending[start:end] {
			wg.Add(1)
			go func(date string) {
				defer wg.Done()
				h.fetchDate(ctx, date)
			}(d)
		}
		wg.Wait()

		if end < len(pending) {
			time.Sleep(historyBatchDelay)
		}
	}
}

func (h *HistoryManager) fetchDate(ctx context.Context, date string) {
	meals, err := h.store.ListByDate(ctx, h.userID, date)
	if err != nil {
		// stays unloaded (or cache pre-filled); retried on next request
		h.log.Warn("history fetch failed", zap.String("date", date), zap.Error(err))
		return
	}

	h.mu.Lock()
	h.loaded[date] = meals
	h.mu.Unlock()

	if h.cacheable(date, h.now()) {
		if err := h.cache.Write(ctx, h.userID, date, meals, h.now()); err != nil {
			h.log.Warn("history cache write failed", zap.String("date", date), zap.Error(err))
		}
	}
}

// cacheable bounds blob-storage growth: only the last week is persisted.
func (h *HistoryManager) cacheable(date string, now time.Time) bool {
	ago, err := utils.DaysAgo(date, now)
	if err != nil {
		return false
	}
	return ago >= 0 && ago <= historyCacheDays
}

// GetNutritionTotalsForDate sums a date's meals fresh on every call; the
// per-date list is the only stored form, so totals can never drift from it.
func (h *HistoryManager) GetNutritionTotalsForDate(ctx context.Context, date string) (models.DailyTotals, error) {
	meals, err := h.GetMealsForDate(ctx, date)
	if err != nil {
		return models.DailyTotals{}, err
	}
	return models.SumMeals(meals), nil
}

// WeeklySummary aggregates an inclusive date range.
type WeeklySummary struct {
	StartDate    string             `json:"start_date"`
	EndDate      string             `json:"end_date"`
	Days         int                `json:"days"`
	DaysTracked  int                `json:"days_tracked"`
	Totals       models.DailyTotals `json:"totals"`
	AverageDaily models.DailyTotals `json:"average_daily"`
}

// GetWeeklyNutritionSummary loads every date in [start, end] and sums
// across the range. Averages divide by the full range length, including
// days with nothing logged, so untracked days dilute them. Observed
// product behavior, kept as is.
func (h *HistoryManager) GetWeeklyNutritionSummary(ctx context.Context, start, end string) (*WeeklySummary, error) {
	dates := utils.DateRange(start, end)
	if len(dates) == 0 {
		return nil, errInvalidRange
	}

	h.LoadMealHistory(ctx, dates)

	out := &WeeklySummary{StartDate: start, EndDate: end, Days: len(dates)}
	for _, d := range dates {
		meals, err := h.GetMealsForDate(ctx, d)
		if err != nil {
			continue
		}
		if len(meals) > 0 {
			out.DaysTracked++
		}
		t := models.SumMeals(meals)
		out.Totals.Calories += t.Calories
		out.Totals.Carbs += t.Carbs
		out.Totals.Protein += t.Protein
		out.Totals.Fat += t.Fat
		out.Totals.Fiber += t.Fiber
		out.Totals.Sugar += t.Sugar
		out.Totals.Sodium += t.Sodium
		out.Totals.MealCount += t.MealCount
	}

	n := float64(len(dates))
	out.AverageDaily = models.DailyTotals{
		Calories:  int(math.Round(float64(out.Totals.Calories) / n)),
		Carbs:     round2(out.Totals.Carbs / n),
		Protein:   round2(out.Totals.Protein / n),
		Fat:       round2(out.Totals.Fat / n),
		Fiber:     round2(out.Totals.Fiber / n),
		Sugar:     round2(out.Totals.Sugar / n),
		Sodium:    round2(out.Totals.Sodium / n),
		MealCount: int(math.Round(float64(out.Totals.MealCount) / n)),
	}
	return out, nil
}

// CleanupOldCache sweeps persisted per-date entries older than the
// retention window. Guarded to run at most once per day, not on every
// session start.
func (h *HistoryManager) CleanupOldCache(ctx context.Context) {
	now := h.now()
	if last, ok := h.cache.LastCleanup(ctx, h.userID); ok && now.Sub(last) < cleanupInterval {
		return
	}

	dates, err := h.cache.DateKeys(ctx, h.userID)
	if err != nil {
		h.log.Warn("cache sweep listing failed", zap.Error(err))
		return
	}

	removed := 0
	for d := range dates {
		ago, err := utils.DaysAgo(d, now)
		if err != nil || ago <= historyRetentionDays {
			continue
		}
		if err := h.cache.Evict(ctx, h.userID, d); err != nil {
			h.log.Warn("cache eviction failed", zap.String("date", d), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		h.log.Info("cache sweep done", zap.Int("removed", removed))
	}
	_ = h.cache.MarkCleanup(ctx, h.userID, now)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
