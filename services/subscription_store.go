package services

import (
	"context"
	"errors"

	"backend/models"

	"gorm.io/gorm"
)

// SubscriptionStore holds the per-user subscription record the billing
// entitlement is reconciled against.
type SubscriptionStore interface {
	// GetActive returns the user's record only if status = active.
	GetActive(ctx context.Context, userID uint) (*models.SubscriptionRecord, error)
	// GetLatest returns the user's record regardless of status.
	GetLatest(ctx context.Context, userID uint) (*models.SubscriptionRecord, error)
	// Upsert writes the record keyed by user id. Idempotent.
	Upsert(ctx context.Context, rec *models.SubscriptionRecord) error
}

type GormSubscriptionStore struct {
	db *gorm.DB
}

func NewGormSubscriptionStore(db *gorm.DB) *GormSubscriptionStore {
	return &GormSubscriptionStore{db: db}
}

func (s *GormSubscriptionStore) GetActive(ctx context.Context, userID uint) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SubStatusActive).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormSubscriptionStore) GetLatest(ctx context.Context, userID uint) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormSubscriptionStore) Upsert(ctx context.Context, rec *models.SubscriptionRecord) error {
	var existing models.SubscriptionRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", rec.UserID).First(&existing).Error
	if err == nil {
		existing.Tier = rec.Tier
		existing.Status = rec.Status
		existing.ProductID = rec.ProductID
		existing.ExpiresAt = rec.ExpiresAt
		existing.Platform = rec.Platform
		return s.db.WithContext(ctx).Save(&existing).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.WithContext(ctx).Create(rec).Error
}
