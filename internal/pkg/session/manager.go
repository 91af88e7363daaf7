// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// Manager keeps sessions in Redis; a token is only valid while its session key exists.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// CreateSession stores a new session until its expiry.
func (m *Manager) CreateSession(ctx context.Context, session *SessionData) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, sessionKey(session.UserID, session.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}

	return nil
}

// GetSession restores a session and bumps its last activity.
func (m *Manager) GetSession(ctx context.Context, userID, jti string) (*SessionData, error) {
	key := sessionKey(userID, jti)

	data, err := m.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerrors.ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.LastActivityAt = time.Now()
	if updated, err := json.Marshal(session); err == nil {
		m.client.SetArgs(ctx, key, updated, redis.SetArgs{KeepTTL: true})
	}

	return &session, nil
}

// UpdateSessions rewrites mutable profile fields on every live session of a user.
func (m *Manager) UpdateSessions(ctx context.Context, userID string, mutate func(*SessionData)) error {
	iter := m.client.Scan(ctx, 0, fmt.Sprintf("session:%s:*", userID), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := m.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}

		var session SessionData
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		mutate(&session)

		updated, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		if err := m.client.SetArgs(ctx, key, updated, redis.SetArgs{KeepTTL: true}).Err(); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
	}
	return iter.Err()
}

// InvalidateSession removes one session.
func (m *Manager) InvalidateSession(ctx context.Context, userID, jti string) error {
	if err := m.client.Del(ctx, sessionKey(userID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// InvalidateAllUserSessions removes every session for a user.
func (m *Manager) InvalidateAllUserSessions(ctx context.Context, userID string) error {
	iter := m.client.Scan(ctx, 0, fmt.Sprintf("session:%s:*", userID), 0).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := m.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return m.client.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

// ConsumeOnce marks a single-use token as spent. It returns false when it was already used.
func (m *Manager) ConsumeOnce(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	ok, err := m.client.SetNX(ctx, "consumed:"+jti, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to consume token: %w", err)
	}
	return ok, nil
}

// GetUserActiveSessions returns all active sessions for a user
func (m *Manager) GetUserActiveSessions(ctx context.Context, userID string) ([]*SessionData, error) {
	var sessions []*SessionData
	iter := m.client.Scan(ctx, 0, fmt.Sprintf("session:%s:*", userID), 0).Iterator()
	for iter.Next(ctx) {
		data, err := m.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}

		var session SessionData
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		sessions = append(sessions, &session)
	}
	return sessions, iter.Err()
}

func sessionKey(userID, jti string) string {
	return fmt.Sprintf("session:%s:%s", userID, jti)
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
