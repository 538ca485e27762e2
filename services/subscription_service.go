package services

import (
	"context"
	"errors"
	"time"

	"backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// proEntitlement is the billing platform entitlement name gating the pro
// tier.
const proEntitlement = "pro"

// SubscriptionService merges billing-platform entitlement state with the
// user_subscriptions table into one authoritative tier view.
//
// The one rule that never bends: a device-level entitlement must not grant
// pro access to a logical user who does not own a matching record. Any
// error on the way resolves to free, never to pro.
type SubscriptionService struct {
	billing BillingClient
	store   SubscriptionStore
	alerts  *AlertBus
	log     *zap.Logger
	now     func() time.Time
}

func NewSubscriptionService(billing BillingClient, store SubscriptionStore, alerts *AlertBus, log *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		billing: billing,
		store:   store,
		alerts:  alerts,
		log:     log,
		now:     time.Now,
	}
}

func freeStatus() *models.SubscriptionStatus {
	return &models.SubscriptionStatus{
		Tier:   models.TierFree,
		Limits: models.LimitsForTier(models.TierFree),
	}
}

// RefreshSubscriptionStatus resolves the user's tier:
//
//  1. Ask the billing platform for customer info.
//  2. Unavailable -> fall back to the stored record, downgrading it if
//     its expiry has passed.
//  3. Active pro entitlement -> validate ownership against the stored
//     records before honoring it.
//  4. Persist the resolved tier (idempotent upsert).
//
// Every failure path resolves to free.
func (s *SubscriptionService) RefreshSubscriptionStatus(ctx context.Context, userID uint) *models.SubscriptionStatus {
	now := s.now()

	info, err := s.billing.GetCustomerInfo(ctx, userID)
	if err != nil {
		s.log.Warn("billing info unavailable, using stored record",
			zap.Uint("user_id", userID), zap.Error(err))
		return s.statusFromStored(ctx, userID, now)
	}

	ent, active := info.ActiveEntitlement(proEntitlement, now)
	if !active {
		return s.persistFree(ctx, userID)
	}

	owned, err := s.validateOwnership(ctx, userID, ent, now)
	if err != nil {
		s.log.Warn("ownership validation failed, defaulting to free",
			zap.Uint("user_id", userID), zap.Error(err))
		return s.persistFree(ctx, userID)
	}
	if !owned {
		// Entitlement exists on this device but belongs to another
		// logical account. Never silently grant access across accounts.
		s.log.Warn("entitlement ownership mismatch, forcing free tier",
			zap.Uint("user_id", userID), zap.String("product_id", ent.ProductID))
		if s.alerts != nil {
			s.alerts.Emit(userID, models.AlertSecurity,
				"A subscription on this device could not be linked to your account.")
		}
		return freeStatus()
	}

	rec := &models.SubscriptionRecord{
		UserID:    userID,
		Tier:      models.TierPro,
		Status:    models.SubStatusActive,
		ProductID: ent.ProductID,
		ExpiresAt: ent.ExpiresAt,
		Platform:  ent.Platform,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.log.Warn("subscription upsert failed, defaulting to free",
			zap.Uint("user_id", userID), zap.Error(err))
		return freeStatus()
	}

	return &models.SubscriptionStatus{
		Tier:      models.TierPro,
		IsActive:  true,
		ExpiresAt: ent.ExpiresAt,
		ProductID: ent.ProductID,
		Limits:    models.LimitsForTier(models.TierPro),
	}
}

// validateOwnership checks the entitlement can be attributed to userID.
// An existing active record settles it. With no record at all the
// entitlement is treated as a first purchase and a record is created for
// this user. That acceptance rests only on "no conflicting record yet" --
// a known trust gap kept from the product's observed behavior; do not
// harden it here without a product decision.
func (s *SubscriptionService) validateOwnership(ctx context.Context, userID uint, ent *Entitlement, now time.Time) (bool, error) {
	rec, err := s.store.GetActive(ctx, userID)
	if err == nil && rec != nil {
		return true, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if _, err := s.store.GetLatest(ctx, userID); err == nil {
		// A record exists but it is not active: the entitlement is not
		// attributable to this user right now.
		return false, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	created := &models.SubscriptionRecord{
		UserID:    userID,
		Tier:      models.TierPro,
		Status:    models.SubStatusActive,
		ProductID: ent.ProductID,
		ExpiresAt: ent.ExpiresAt,
		Platform:  ent.Platform,
	}
	if err := s.store.Upsert(ctx, created); err != nil {
		return false, err
	}
	s.log.Info("subscription record bootstrapped from entitlement",
		zap.Uint("user_id", userID), zap.String("product_id", ent.ProductID))
	return true, nil
}

// statusFromStored serves the billing-unavailable path from the last
// persisted record, correcting it if the expiry has passed.
func (s *SubscriptionService) statusFromStored(ctx context.Context, userID uint, now time.Time) *models.SubscriptionStatus {
	rec, err := s.store.GetLatest(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("stored subscription read failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return freeStatus()
	}

	if rec.IsActive(now) {
		return &models.SubscriptionStatus{
			Tier:      rec.Tier,
			IsActive:  true,
			ExpiresAt: rec.ExpiresAt,
			ProductID: rec.ProductID,
			Limits:    models.LimitsForTier(rec.Tier),
		}
	}

	if rec.Tier != models.TierFree {
		// Expired while billing was unreachable; persist the correction.
		rec.Tier = models.TierFree
		rec.Status = models.SubStatusExpired
		if err := s.store.Upsert(ctx, rec); err != nil {
			s.log.Warn("expiry correction not persisted", zap.Uint("user_id", userID), zap.Error(err))
		}
		if s.alerts != nil {
			s.alerts.Emit(userID, models.AlertSubscription, "Your subscription has expired.")
		}
	}
	return freeStatus()
}

func (s *SubscriptionService) persistFree(ctx context.Context, userID uint) *models.SubscriptionStatus {
	rec := &models.SubscriptionRecord{
		UserID: userID,
		Tier:   models.TierFree,
		Status: models.SubStatusFree,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		s.log.Warn("free tier upsert failed", zap.Uint("user_id", userID), zap.Error(err))
	}
	return freeStatus()
}

// Purchase forwards a store receipt to the billing platform and
// re-reconciles.
func (s *SubscriptionService) Purchase(ctx context.Context, userID uint, productID, receipt, platform string) (*models.SubscriptionStatus, error) {
	if err := s.billing.Purchase(ctx, userID, productID, receipt, platform); err != nil {
		return freeStatus(), err
	}
	return s.RefreshSubscriptionStatus(ctx, userID), nil
}

// RestorePurchases asks the billing platform to re-evaluate receipts and
// re-reconciles.
func (s *SubscriptionService) RestorePurchases(ctx context.Context, userID uint) (*models.SubscriptionStatus, error) {
	if _, err := s.billing.RestorePurchases(ctx, userID); err != nil {
		return freeStatus(), err
	}
	return s.RefreshSubscriptionStatus(ctx, userID), nil
}

// ResetForTesting clears the stored record back to free tier. Test
// support for QA builds.
func (s *SubscriptionService) ResetForTesting(ctx context.Context, userID uint) error {
	return s.store.Upsert(ctx, &models.SubscriptionRecord{
		UserID: userID,
		Tier:   models.TierFree,
		Status: models.SubStatusFree,
	})
}
