package models

import (
	"time"

	"github.com/google/uuid"
)

// Entry methods record where a meal came from. Provenance only, nothing
// branches on them.
const (
	EntryMethodManual = "manual"
	EntryMethodCamera = "camera"
	EntryMethodSearch = "search"
	EntryMethodRecipe = "recipe"
)

// MealRecord is one logged meal. Records are immutable once created;
// corrections are delete-and-relog.
type MealRecord struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uint      `gorm:"index:idx_meals_user_date;not null" json:"user_id"`
	MealDate string    `gorm:"index:idx_meals_user_date;size:10;not null" json:"meal_date"` // local YYYY-MM-DD
	MealTime string    `gorm:"size:8" json:"meal_time"`                                     // display only
	Name     string    `gorm:"not null" json:"name"`

	Calories int     `json:"calories"`
	Carbs    float64 `json:"carbs"`   // g
	Protein  float64 `json:"protein"` // g
	Fat      float64 `json:"fat"`     // g
	Fiber    float64 `json:"fiber"`   // g
	Sugar    float64 `json:"sugar"`   // g
	Sodium   float64 `json:"sodium"`  // mg

	Method string `gorm:"size:16;default:'manual'" json:"method"`

	CreatedAt time.Time `json:"created_at"`
}

func (MealRecord) TableName() string { return "meals" }

// DailyTotals is always derived by full summation over a day's meal list,
// never patched incrementally, so add/delete sequences cannot drift.
type DailyTotals struct {
	Calories  int     `json:"calories"`
	Carbs     float64 `json:"carbs"`
	Protein   float64 `json:"protein"`
	Fat       float64 `json:"fat"`
	Fiber     float64 `json:"fiber"`
	Sugar     float64 `json:"sugar"`
	Sodium    float64 `json:"sodium"`
	MealCount int     `json:"meal_count"`
}

// SumMeals recomputes totals from scratch.
func SumMeals(meals []MealRecord) DailyTotals {
	var t DailyTotals
	for _, m := range meals {
		t.Calories += m.Calories
		t.Carbs += m.Carbs
		t.Protein += m.Protein
		t.Fat += m.Fat
		t.Fiber += m.Fiber
		t.Sugar += m.Sugar
		t.Sodium += m.Sodium
	}
	t.MealCount = len(meals)
	return t
}
