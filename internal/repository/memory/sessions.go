package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aryan0dhankhar/formativa/internal/domain"
)

// SessionStore implements domain.SessionRepository for single-process use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]*domain.Session{}, now: time.Now}
}

func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *session
	s.sessions[session.ID] = &c
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if ok && !s.now().Before(session.ExpiresAt) {
		delete(s.sessions, id)
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	c := *session
	return &c, nil
}

func (s *SessionStore) Revoke(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) Ping(context.Context) error { return nil }

// Sweep drops expired sessions and reports how many were removed.
func (s *SessionStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
