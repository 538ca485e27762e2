package services

import (
	"time"

	"backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AlertBus persists an alert row, mirrors it to open websockets and, when
// push is configured, notifies the user's devices. Built explicitly and
// injected; there is no package-level instance.
type AlertBus struct {
	db  *gorm.DB
	rt  *RealtimeHub
	ps  *PushService
	log *zap.Logger
}

func NewAlertBus(db *gorm.DB, rt *RealtimeHub, ps *PushService, log *zap.Logger) *AlertBus {
	return &AlertBus{db: db, rt: rt, ps: ps, log: log}
}

func (b *AlertBus) Emit(userID uint, typ, message string) {
	a := &models.Alert{UserID: userID, Type: typ, Message: message, CreatedAt: time.Now()}
	if err := b.db.Create(a).Error; err != nil {
		b.log.Warn("alert not persisted", zap.Uint("user_id", userID), zap.Error(err))
	}

	if b.rt != nil {
		b.rt.Broadcast(userID, "alert.created", a)
	}
	if b.ps != nil {
		b.ps.PushToUser(userID, "CorePlus", message, map[string]string{"type": typ})
	}
}
