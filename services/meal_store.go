package services

import (
	"context"

	"backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MealStore is the authoritative record of logged meals. The daily tracker
// and history manager treat it as the single source of truth; local caches
// are only an optimistic pre-fill over it.
type MealStore interface {
	// ListByDate returns every meal for one user on one local calendar date.
	ListByDate(ctx context.Context, userID uint, date string) ([]models.MealRecord, error)
	// Create inserts a meal and returns it as stored (id assigned).
	Create(ctx context.Context, rec *models.MealRecord) (*models.MealRecord, error)
	// Delete hard-deletes a meal owned by userID.
	Delete(ctx context.Context, userID uint, id uuid.UUID) error
}

type GormMealStore struct {
	db *gorm.DB
}

func NewGormMealStore(db *gorm.DB) *GormMealStore {
	return &GormMealStore{db: db}
}

func (s *GormMealStore) ListByDate(ctx context.Context, userID uint, date string) ([]models.MealRecord, error) {
	var meals []models.MealRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND meal_date = ?", userID, date).
		Order("created_at ASC").
		Find(&meals).Error
	return meals, err
}

func (s *GormMealStore) Create(ctx context.Context, rec *models.MealRecord) (*models.MealRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}

	// reload so callers see exactly what the store holds
	var stored models.MealRecord
	if err := s.db.WithContext(ctx).First(&stored, "id = ?", rec.ID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (s *GormMealStore) Delete(ctx context.Context, userID uint, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.MealRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
