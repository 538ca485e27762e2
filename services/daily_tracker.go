package services

import (
	"context"
	"sync"
	"time"

	"backend/models"
	"backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// todayFreshness is the maximum age of the today cache entry before a
// remote refresh is triggered.
const todayFreshness = 5 * time.Minute

// MealInput is the caller-supplied part of a new meal record.
type MealInput struct {
	Name     string  `json:"name" binding:"required"`
	Calories int     `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
	Method   string  `json:"method"`
	MealTime string  `json:"meal_time"`
}

// DailyTracker keeps one user's current-day meal list and derived totals
// in memory, reloading transparently when the local calendar date rolls
// over while the session is open.
//
// The meal store is authoritative. The cache entry for the current date is
// an optimistic pre-fill: it is served immediately and refreshed from the
// store in the background when stale.
type DailyTracker struct {
	store MealStore
	cache *MealCache
	hub   *RealtimeHub
	log   *zap.Logger

	now       func() time.Time
	freshness time.Duration

	mu          sync.Mutex
	userID      uint
	active      bool
	currentDate string
	meals       []models.MealRecord
	totals      models.DailyTotals
}

func NewDailyTracker(store MealStore, cache *MealCache, hub *RealtimeHub, log *zap.Logger) *DailyTracker {
	return &DailyTracker{
		store:     store,
		cache:     cache,
		hub:       hub,
		log:       log,
		now:       time.Now,
		freshness: todayFreshness,
	}
}

// StartSession binds the tracker to an authenticated user and performs the
// initial load for today.
func (t *DailyTracker) StartSession(ctx context.Context, userID uint) {
	t.mu.Lock()
	t.userID = userID
	t.active = true
	t.currentDate = utils.LocalDate(t.now())
	t.meals = nil
	t.totals = models.DailyTotals{}
	t.mu.Unlock()

	t.Load(ctx)
}

// EndSession drops all in-memory state. In-flight refreshes commit against
// the (user, date) pair they started with, so their results are discarded.
func (t *DailyTracker) EndSession() {
	t.mu.Lock()
	t.active = false
	t.userID = 0
	t.currentDate = ""
	t.meals = nil
	t.totals = models.DailyTotals{}
	t.mu.Unlock()
}

// Snapshot returns the current date, meal list and totals.
func (t *DailyTracker) Snapshot() (string, []models.MealRecord, models.DailyTotals) {
	t.mu.Lock()
	defer t.mu.Unlock()
	meals := make([]models.MealRecord, len(t.meals))
	copy(meals, t.meals)
	return t.currentDate, meals, t.totals
}

// Load populates state from the cache entry for the current date, then
// decides independently whether a remote refresh is needed. With a warm
// cache hit the refresh runs in the background and the caller never waits
// on the network; on a miss the refresh is synchronous.
func (t *DailyTracker) Load(ctx context.Context) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	userID, date := t.userID, t.currentDate
	t.mu.Unlock()

	meals, writtenAt, hit := t.cache.Read(ctx, userID, date)
	if hit {
		t.commit(userID, date, meals, false)
	}

	if !t.cache.Stale(writtenAt, len(meals) == 0, t.now(), t.freshness) {
		return
	}
	if hit {
		go func() {
			if err := t.refreshFromRemote(context.Background()); err != nil {
				t.log.Warn("background refresh failed", zap.String("date", date), zap.Error(err))
			}
		}()
		return
	}
	if err := t.refreshFromRemote(ctx); err != nil {
		t.log.Warn("refresh failed", zap.String("date", date), zap.Error(err))
	}
}

// refreshFromRemote re-fetches the current date from the meal store and,
// on success, overwrites memory and cache. No session is a silent no-op.
// Any other failure leaves the existing state untouched: stale but
// available beats unavailable.
func (t *DailyTracker) refreshFromRemote(ctx context.Context) error {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return nil
	}
	userID, date := t.userID, t.currentDate
	t.mu.Unlock()

	meals, err := t.store.ListByDate(ctx, userID, date)
	if err != nil {
		return err
	}

	if !t.commit(userID, date, meals, true) {
		return nil // session or date moved on while we were fetching
	}
	if err := t.cache.Write(ctx, userID, date, meals, t.now()); err != nil {
		t.log.Warn("cache write failed", zap.String("date", date), zap.Error(err))
	}
	return nil
}

// commit installs a meal list if the tracker is still on the same
// (user, date) pair, recomputing totals by full summation. Results of
// fetches that straddled a rollover or logout are discarded here.
func (t *DailyTracker) commit(userID uint, date string, meals []models.MealRecord, broadcast bool) bool {
	t.mu.Lock()
	if !t.active || t.userID != userID || t.currentDate != date {
		t.mu.Unlock()
		return false
	}
	t.meals = meals
	t.totals = models.SumMeals(meals)
	totals := t.totals
	t.mu.Unlock()

	if broadcast && t.hub != nil {
		t.hub.BroadcastTotals(userID, date, totals)
	}
	return true
}

// AddMeal creates a record for the current date, then re-fetches the whole
// day from the store rather than appending locally: the server may
// normalize the record, and a full re-read keeps the aggregate drift-free
// under concurrent writers on other devices.
func (t *DailyTracker) AddMeal(ctx context.Context, in MealInput) (*models.MealRecord, error) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	userID, date := t.userID, t.currentDate
	t.mu.Unlock()

	method := in.Method
	if method == "" {
		method = models.EntryMethodManual
	}
	mealTime := in.MealTime
	if mealTime == "" {
		mealTime = utils.LocalTime(t.now())
	}

	rec := &models.MealRecord{
		ID:       uuid.New(),
		UserID:   userID,
		MealDate: date,
		MealTime: mealTime,
		Name:     in.Name,
		Calories: in.Calories,
		Carbs:    in.Carbs,
		Protein:  in.Protein,
		Fat:      in.Fat,
		Fiber:    in.Fiber,
		Sugar:    in.Sugar,
		Sodium:   in.Sodium,
		Method:   method,
	}

	created, err := t.store.Create(ctx, rec)
	if err != nil {
		return nil, err
	}

	if err := t.refreshFromRemote(ctx); err != nil {
		t.log.Warn("post-add refresh failed", zap.String("date", date), zap.Error(err))
	}
	return created, nil
}

// DeleteMeal removes the record remotely and then trims the local list
// in place, without a refetch: the deleted id is known precisely, which
// is why this path is deliberately asymmetric with AddMeal.
func (t *DailyTracker) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return ErrNotAuthenticated
	}
	userID, date := t.userID, t.currentDate
	t.mu.Unlock()

	if err := t.store.Delete(ctx, userID, id); err != nil {
		return err
	}

	t.mu.Lock()
	if t.active && t.userID == userID && t.currentDate == date {
		kept := t.meals[:0:0]
		for _, m := range t.meals {
			if m.ID != id {
				kept = append(kept, m)
			}
		}
		t.meals = kept
		t.totals = models.SumMeals(kept)
	}
	meals, totals := t.meals, t.totals
	t.mu.Unlock()

	if err := t.cache.Write(ctx, userID, date, meals, t.now()); err != nil {
		t.log.Warn("cache write failed", zap.String("date", date), zap.Error(err))
	}
	if t.hub != nil {
		t.hub.BroadcastTotals(userID, date, totals)
	}
	return nil
}

// CheckRollover compares the wall clock's local date against the tracked
// one. On mismatch the reset happens synchronously before any load is
// triggered for the new date: list and totals are observably empty the
// moment the date advances.
func (t *DailyTracker) CheckRollover(ctx context.Context) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	today := utils.LocalDate(t.now())
	if today == t.currentDate {
		t.mu.Unlock()
		return
	}
	prev := t.currentDate
	userID := t.userID
	t.currentDate = today
	t.meals = nil
	t.totals = models.DailyTotals{}
	t.mu.Unlock()

	t.log.Info("date rollover", zap.String("from", prev), zap.String("to", today))
	if err := t.cache.Evict(ctx, userID, prev); err != nil {
		t.log.Warn("rollover eviction failed", zap.String("date", prev), zap.Error(err))
	}
	t.Load(ctx)
}
