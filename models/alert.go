package models

import "time"

// Alert types.
const (
	AlertSecurity     = "security"     // e.g. entitlement ownership mismatch
	AlertSubscription = "subscription" // e.g. subscription expired
	AlertInfo         = "info"
)

type Alert struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index"`
	Type      string    `gorm:"size:20"`
	Message   string    `gorm:"type:text"`
	CreatedAt time.Time
}
