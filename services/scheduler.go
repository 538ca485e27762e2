package services

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the periodic work behind every live session: the
// date-rollover check, the subscription poll and the daily cache sweep.
// Start returns only after jobs are registered; Stop is the explicit
// cancel handle tied to process shutdown.
type Scheduler struct {
	cron     *cron.Cron
	sessions *SessionManager
	subs     *SubscriptionService
	log      *zap.Logger
}

func NewScheduler(sessions *SessionManager, subs *SubscriptionService, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		sessions: sessions,
		subs:     subs,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	// Rollover detection: local date compared every 30s; a mismatch
	// resets today's state before the reload for the new date.
	if _, err := s.cron.AddFunc("*/30 * * * * *", func() {
		s.sessions.Each(func(sess *Session) {
			sess.Tracker.CheckRollover(context.Background())
		})
	}); err != nil {
		return err
	}

	// Subscription reconciliation poll.
	if _, err := s.cron.AddFunc("*/30 * * * * *", func() {
		s.sessions.Each(func(sess *Session) {
			s.subs.RefreshSubscriptionStatus(context.Background(), sess.UserID)
		})
	}); err != nil {
		return err
	}

	// Cache sweep: the per-session 24h guard makes this cheap to run
	// hourly.
	if _, err := s.cron.AddFunc("0 0 * * * *", func() {
		s.sessions.Each(func(sess *Session) {
			sess.History.CleanupOldCache(context.Background())
		})
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
