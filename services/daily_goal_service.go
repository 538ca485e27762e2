package services

import (
	"context"
	"errors"

	"backend/models"

	"gorm.io/gorm"
)

// GoalProgress pairs consumed amounts with targets for one nutrient.
type GoalProgress struct {
	Consumed float64 `json:"consumed"`
	Goal     float64 `json:"goal"`
	Percent  float64 `json:"percent"` // capped at 1.0
}

type DailyGoalService struct {
	db *gorm.DB
}

func NewDailyGoalService(db *gorm.DB) *DailyGoalService {
	return &DailyGoalService{db: db}
}

func (s *DailyGoalService) GetGoals(ctx context.Context, userID uint) (*models.DailyGoal, error) {
	var goal models.DailyGoal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.DailyGoal{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *DailyGoalService) UpsertGoals(ctx context.Context, userID uint, in models.DailyGoal) error {
	var goal models.DailyGoal
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&goal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		in.UserID = userID
		return s.db.WithContext(ctx).Create(&in).Error
	}
	if err != nil {
		return err
	}

	goal.Calories = in.Calories
	goal.Protein = in.Protein
	goal.Carbs = in.Carbs
	goal.Fat = in.Fat
	goal.Fiber = in.Fiber
	goal.Sodium = in.Sodium
	goal.Sugar = in.Sugar
	return s.db.WithContext(ctx).Save(&goal).Error
}

// Progress maps today's totals against the user's targets.
func (s *DailyGoalService) Progress(ctx context.Context, userID uint, totals models.DailyTotals) (map[string]GoalProgress, error) {
	goal, err := s.GetGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	pct := func(consumed, target float64) float64 {
		if target <= 0 {
			return 0
		}
		p := consumed / target
		if p > 1 {
			return 1
		}
		return p
	}

	return map[string]GoalProgress{
		"calories": {Consumed: float64(totals.Calories), Goal: goal.Calories, Percent: pct(float64(totals.Calories), goal.Calories)},
		"protein":  {Consumed: totals.Protein, Goal: goal.Protein, Percent: pct(totals.Protein, goal.Protein)},
		"carbs":    {Consumed: totals.Carbs, Goal: goal.Carbs, Percent: pct(totals.Carbs, goal.Carbs)},
		"fat":      {Consumed: totals.Fat, Goal: goal.Fat, Percent: pct(totals.Fat, goal.Fat)},
		"fiber":    {Consumed: totals.Fiber, Goal: goal.Fiber, Percent: pct(totals.Fiber, goal.Fiber)},
		"sodium":   {Consumed: totals.Sodium, Goal: goal.Sodium, Percent: pct(totals.Sodium, goal.Sodium)},
		"sugar":    {Consumed: totals.Sugar, Goal: goal.Sugar, Percent: pct(totals.Sugar, goal.Sugar)},
	}, nil
}
