package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Subscription record statuses.
const (
	SubStatusActive  = "active"
	SubStatusExpired = "expired"
	SubStatusFree    = "free"
)

// SubscriptionRecord mirrors the billing platform's entitlement for one
// user. A pro tier is only honored for the user that owns an active row
// with an unexpired expiry; a device-level entitlement alone is not enough.
type SubscriptionRecord struct {
	gorm.Model
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Tier      string `gorm:"size:16;not null;default:'free'" json:"tier"`
	Status    string `gorm:"size:16;not null;default:'free'" json:"status"`
	ProductID string `gorm:"size:255" json:"product_id"`
	ExpiresAt *time.Time `json:"expires_at"`
	Platform  string `gorm:"size:16" json:"platform"` // "ios" | "android"
}

func (SubscriptionRecord) TableName() string { return "user_subscriptions" }

// IsActive reports whether the record grants paid access right now.
// A tier value alone is not enough: the expiry must be open or in the future.
func (r *SubscriptionRecord) IsActive(now time.Time) bool {
	if r.Tier == TierFree || r.Status != SubStatusActive {
		return false
	}
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}

// TierLimits caps what each tier may use.
type TierLimits struct {
	DailyScans  int  `json:"daily_scans"`
	HistoryDays int  `json:"history_days"`
	CanExport   bool `json:"can_export"`
	AIPlanner   bool `json:"ai_planner"`
}

var tierLimits = map[string]TierLimits{
	TierFree: {DailyScans: 3, HistoryDays: 7, CanExport: false, AIPlanner: false},
	TierPro:  {DailyScans: 100, HistoryDays: 365, CanExport: true, AIPlanner: true},
}

// LimitsForTier returns the static feature caps for a tier. Unknown tiers
// fall back to free.
func LimitsForTier(tier string) TierLimits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[TierFree]
}

// SubscriptionStatus is the resolved view served to clients.
type SubscriptionStatus struct {
	Tier      string     `json:"tier"`
	IsActive  bool       `json:"is_active"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	ProductID string     `json:"product_id,omitempty"`
	Limits    TierLimits `json:"limits"`
}
