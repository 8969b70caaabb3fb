// Package session holds the in-memory registry of live assessment sessions.
// Sessions are deliberately ephemeral: nothing survives the process.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"credit-assessor/internal/assessment"
	"credit-assessor/internal/common/errors"
	"credit-assessor/internal/common/logger"
)

// Session ties one client interaction stream to its exclusively owned
// assessment state. Transitions on a session are applied sequentially under
// its mutex; independent sessions never share state.
type Session struct {
	ID           string
	State        *assessment.State
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastActivity time.Time

	mu sync.Mutex
}

// IsExpired checks if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Do runs fn while holding the session's transition lock and refreshes the
// activity timestamp.
func (s *Session) Do(fn func(st *assessment.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastActivity = time.Now()
	return fn(s.State)
}

// Store is a mutex-guarded in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	machine  *assessment.Machine
	logger   logger.Logger
}

// NewStore creates a Store producing sessions with the given TTL.
func NewStore(machine *assessment.Machine, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		machine:  machine,
		logger:   log.WithFields(map[string]interface{}{"component": "session-store"}),
	}
}

// Create starts a new session with fresh initial assessment state.
func (s *Store) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:           uuid.NewString(),
		State:        s.machine.NewState(),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		LastActivity: now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("session created", map[string]interface{}{
		"sessionId": sess.ID,
		"expiresAt": sess.ExpiresAt,
	})

	return sess
}

// Get returns the live session for id, or a typed error when the id is
// unknown or the session has expired.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.NewSessionNotFoundError(id)
	}
	if sess.IsExpired() {
		s.Delete(id)
		return nil, errors.NewSessionExpiredError(id)
	}

	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSweeper evicts expired sessions at the given interval until ctx is
// cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.IsExpired() {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info("expired sessions evicted", map[string]interface{}{
			"removed":   removed,
			"remaining": len(s.sessions),
		})
	}
}
