package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session is the per-user state kept while that user is signed in: the
// current-day tracker and the lazy history loader.
type Session struct {
	UserID    uint
	Tracker   *DailyTracker
	History   *HistoryManager
	StartedAt time.Time
}

// SessionManager owns session lifecycles explicitly: Ensure on sign-in /
// first authenticated request, End on logout. The scheduler ticks every
// live session for rollover checks and cache sweeps.
type SessionManager struct {
	store MealStore
	cache *MealCache
	hub   *RealtimeHub
	log   *zap.Logger

	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewSessionManager(store MealStore, cache *MealCache, hub *RealtimeHub, log *zap.Logger) *SessionManager {
	return &SessionManager{
		store:    store,
		cache:    cache,
		hub:      hub,
		log:      log,
		sessions: make(map[uint]*Session),
	}
}

// Ensure returns the user's session, creating and loading it on first use.
func (m *SessionManager) Ensure(ctx context.Context, userID uint) *Session {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s
	}

	tracker := NewDailyTracker(m.store, m.cache, m.hub, m.log)
	s := &Session{
		UserID:    userID,
		Tracker:   tracker,
		History:   NewHistoryManager(userID, m.store, m.cache, tracker, m.log),
		StartedAt: time.Now(),
	}
	m.sessions[userID] = s
	m.mu.Unlock()

	s.Tracker.StartSession(ctx, userID)
	m.log.Info("session started", zap.Uint("user_id", userID))
	return s
}

// End tears a session down; in-flight work for it discards its results.
func (m *SessionManager) End(userID uint) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()
	if ok {
		s.Tracker.EndSession()
		m.log.Info("session ended", zap.Uint("user_id", userID))
	}
}

// Each calls fn for every live session.
func (m *SessionManager) Each(fn func(*Session)) {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		fn(s)
	}
}
