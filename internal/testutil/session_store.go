package testutil

import (
	"context"
	"sync"
	"time"

	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/session"
)

// InMemorySessionStore implements session.Store
type InMemorySessionStore struct {
	mu          sync.Mutex
	sessions    map[string]map[string]session.SessionData
	blacklisted map[string]bool
	consumed    map[string]bool
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions:    make(map[string]map[string]session.SessionData),
		blacklisted: make(map[string]bool),
		consumed:    make(map[string]bool),
	}
}

func (s *InMemorySessionStore) CreateSession(_ context.Context, sd *session.SessionData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sd.UserID] == nil {
		s.sessions[sd.UserID] = make(map[string]session.SessionData)
	}
	s.sessions[sd.UserID][sd.JTI] = *sd
	return nil
}

func (s *InMemorySessionStore) GetSession(_ context.Context, userID, jti string) (*session.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd, ok := s.sessions[userID][jti]
	if !ok || time.Now().After(sd.ExpiresAt) {
		return nil, xerrors.ErrSessionExpired
	}
	sd.LastActivityAt = time.Now()
	s.sessions[userID][jti] = sd
	return &sd, nil
}

func (s *InMemorySessionStore) UpdateSessions(_ context.Context, userID string, mutate func(*session.SessionData)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, sd := range s.sessions[userID] {
		mutate(&sd)
		s.sessions[userID][jti] = sd
	}
	return nil
}

func (s *InMemorySessionStore) InvalidateSession(_ context.Context, userID, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions[userID], jti)
	return nil
}

func (s *InMemorySessionStore) InvalidateAllUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *InMemorySessionStore) IsTokenBlacklisted(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blacklisted[jti], nil
}

func (s *InMemorySessionStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklisted[jti] = true
	return nil
}

func (s *InMemorySessionStore) ConsumeOnce(_ context.Context, jti string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed[jti] {
		return false, nil
	}
	s.consumed[jti] = true
	return true, nil
}

func (s *InMemorySessionStore) GetUserActiveSessions(_ context.Context, userID string) ([]*session.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*session.SessionData
	for _, sd := range s.sessions[userID] {
		sd := sd
		out = append(out, &sd)
	}
	return out, nil
}

// CountSessions returns the number of live sessions held for userID.
func (s *InMemorySessionStore) CountSessions(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions[userID])
}

// InMemoryLimiter implements session.Limiter with fixed budgets and no expiry.
type InMemoryLimiter struct {
	mu       sync.Mutex
	MaxLogin int
	MaxReset int
	logins   map[string]int
	resets   map[string]int
}

func NewInMemoryLimiter() *InMemoryLimiter {
	return &InMemoryLimiter{MaxLogin: 5, MaxReset: 3, logins: map[string]int{}, resets: map[string]int{}}
}

func (l *InMemoryLimiter) CheckLoginAttempt(_ context.Context, ip, email string) (bool, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logins[ip+":"+email]++
	count := l.logins[ip+":"+email]
	return count <= l.MaxLogin, int64(max(l.MaxLogin-count, 0)), nil
}

func (l *InMemoryLimiter) ResetLoginAttempts(_ context.Context, ip, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.logins, ip+":"+email)
	return nil
}

func (l *InMemoryLimiter) CheckPasswordResetAttempt(_ context.Context, email string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets[email]++
	return l.resets[email] <= l.MaxReset, nil
}
