package session

import (
	"context"
	"time"
)

// Store is the session API the services and middleware depend on. Manager is
// the Redis implementation.
type Store interface {
	CreateSession(ctx context.Context, session *SessionData) error
	GetSession(ctx context.Context, userID, jti string) (*SessionData, error)
	UpdateSessions(ctx context.Context, userID string, mutate func(*SessionData)) error
	InvalidateSession(ctx context.Context, userID, jti string) error
	InvalidateAllUserSessions(ctx context.Context, userID string) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	ConsumeOnce(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	GetUserActiveSessions(ctx context.Context, userID string) ([]*SessionData, error)
}

// Limiter throttles credential endpoints.
type Limiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
	CheckPasswordResetAttempt(ctx context.Context, email string) (bool, error)
}

var (
	_ Store   = (*Manager)(nil)
	_ Limiter = (*RateLimiter)(nil)
)
