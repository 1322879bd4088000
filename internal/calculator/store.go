package calculator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keypad-calculator/internal/keypad"
	"keypad-calculator/internal/observability"
)

// ErrSessionNotFound is returned for unknown or evicted session ids.
var ErrSessionNotFound = errors.New("session not found")

// Session is one calculator attached to one client. mu serialises key
// sequences because keypad.Calculator is not safe for concurrent use.
type Session struct {
	id uuid.UUID

	mu       sync.Mutex
	calc     *keypad.Calculator
	lastUsed time.Time
}

// Store keeps calculator sessions in memory. Nothing survives a restart.
type Store struct {
	newCalculator func() *keypad.Calculator
	idleTTL       time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewStore returns an empty store. Sessions idle for longer than idleTTL are
// removed by Sweep; a zero idleTTL keeps them forever.
func NewStore(newCalculator func() *keypad.Calculator, idleTTL time.Duration) *Store {
	return &Store{
		newCalculator: newCalculator,
		idleTTL:       idleTTL,
		now:           time.Now,
		sessions:      make(map[uuid.UUID]*Session),
	}
}

func (s *Store) Create(ctx context.Context) *Session {
	sess := &Session{
		id:       uuid.New(),
		calc:     s.newCalculator(),
		lastUsed: s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	sessionsActive.Add(ctx, 1)
	return sess
}

func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sessionsActive.Add(ctx, -1)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep evicts idle sessions and returns how many were removed. Session
// locks are never taken while s.mu is held, so a busy session cannot stall
// Create or Get.
func (s *Store) Sweep(ctx context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}

	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.Unlock()

	var expired []*Session
	for _, sess := range candidates {
		if sess.idleSince(cutoff) {
			expired = append(expired, sess)
		}
	}

	removed := 0
	s.mu.Lock()
	for _, sess := range expired {
		// skip sessions deleted or replaced since the snapshot
		if s.sessions[sess.id] == sess {
			delete(s.sessions, sess.id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		sessionsActive.Add(ctx, -int64(removed))
	}
	return removed
}

// Janitor calls Sweep every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				observability.Logger.Info("evicted idle calculator sessions",
					zap.Int("evicted", n),
					zap.Int("remaining", s.Len()),
				)
			}
		}
	}
}

func (sess *Session) idleSince(cutoff time.Time) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.lastUsed.Before(cutoff)
}

func (sess *Session) ID() uuid.UUID {
	return sess.id
}

// Use runs fn with exclusive access to the session's calculator and marks the
// session as used.
func (sess *Session) Use(now time.Time, fn func(*keypad.Calculator)) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastUsed = now
	fn(sess.calc)
}
