package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/models"
)

// MealCache persists per-date meal lists with a last-write timestamp.
// Keys carry the user id so nothing leaks across accounts. A value that
// fails to parse is treated as a miss, never as an error.
type MealCache struct {
	blobs BlobStore
}

func NewMealCache(blobs BlobStore) *MealCache {
	return &MealCache{blobs: blobs}
}

func mealKey(userID uint, date string) string {
	return fmt.Sprintf("meals:%d:%s", userID, date)
}

func tsKey(userID uint, date string) string {
	return fmt.Sprintf("meals_ts:%d:%s", userID, date)
}

func cleanupKey(userID uint) string {
	return fmt.Sprintf("cache_cleanup_ts:%d", userID)
}

// Read returns the cached meal list for a date plus its last-write time.
// ok is false on a miss or a corrupt blob.
func (c *MealCache) Read(ctx context.Context, userID uint, date string) (meals []models.MealRecord, writtenAt time.Time, ok bool) {
	raw, err := c.blobs.Get(ctx, mealKey(userID, date))
	if err != nil {
		return nil, time.Time{}, false
	}
	if err := json.Unmarshal([]byte(raw), &meals); err != nil {
		// corrupt entry: drop it and report a miss
		_ = c.blobs.Delete(ctx, mealKey(userID, date), tsKey(userID, date))
		return nil, time.Time{}, false
	}

	if rawTS, err := c.blobs.Get(ctx, tsKey(userID, date)); err == nil {
		if ts, err := time.Parse(time.RFC3339, rawTS); err == nil {
			writtenAt = ts
		}
	}
	return meals, writtenAt, true
}

// Write stores the meal list for a date and stamps it with now.
func (c *MealCache) Write(ctx context.Context, userID uint, date string, meals []models.MealRecord, now time.Time) error {
	raw, err := json.Marshal(meals)
	if err != nil {
		return err
	}
	if err := c.blobs.Set(ctx, mealKey(userID, date), string(raw)); err != nil {
		return err
	}
	return c.blobs.Set(ctx, tsKey(userID, date), now.Format(time.RFC3339))
}

// Evict removes one date's entry.
func (c *MealCache) Evict(ctx context.Context, userID uint, date string) error {
	return c.blobs.Delete(ctx, mealKey(userID, date), tsKey(userID, date))
}

// Stale reports whether an entry needs a remote refresh: no timestamp,
// older than the freshness window, or empty.
func (c *MealCache) Stale(writtenAt time.Time, empty bool, now time.Time, window time.Duration) bool {
	if writtenAt.IsZero() || empty {
		return true
	}
	return now.Sub(writtenAt) > window
}

// LastCleanup returns when the once-per-day cache sweep last ran.
func (c *MealCache) LastCleanup(ctx context.Context, userID uint) (time.Time, bool) {
	raw, err := c.blobs.Get(ctx, cleanupKey(userID))
	if err != nil {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// MarkCleanup stamps the sweep guard.
func (c *MealCache) MarkCleanup(ctx context.Context, userID uint, now time.Time) error {
	return c.blobs.Set(ctx, cleanupKey(userID), now.Format(time.RFC3339))
}

// DateKeys lists every cached meal date for a user.
func (c *MealCache) DateKeys(ctx context.Context, userID uint) (map[string]struct{}, error) {
	keys, err := c.blobs.Keys(ctx, fmt.Sprintf("meals:%d:*", userID))
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("meals:%d:", userID)
	dates := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if len(k) > len(prefix) {
			dates[k[len(prefix):]] = struct{}{}
		}
	}
	return dates, nil
}
