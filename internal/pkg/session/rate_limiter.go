// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxLoginAttempts = 5
	loginWindow      = 15 * time.Minute
	maxResetAttempts = 3
	resetWindow      = time.Hour
)

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckLoginAttempt counts an attempt and reports whether it is allowed plus the attempts left.
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error) {
	count, err := r.incr(ctx, fmt.Sprintf("ratelimit:login:%s:%s", ip, email), loginWindow)
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment login attempt: %w", err)
	}

	remaining := maxLoginAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= maxLoginAttempts, remaining, nil
}

// ResetLoginAttempts resets the login attempt counter
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	return r.client.Del(ctx, fmt.Sprintf("ratelimit:login:%s:%s", ip, email)).Err()
}

// CheckPasswordResetAttempt allows three reset emails per hour per address.
func (r *RateLimiter) CheckPasswordResetAttempt(ctx context.Context, email string) (bool, error) {
	count, err := r.incr(ctx, fmt.Sprintf("ratelimit:password_reset:%s", email), resetWindow)
	if err != nil {
		return false, fmt.Errorf("failed to increment password reset attempt: %w", err)
	}
	return count <= maxResetAttempts, nil
}

// incr bumps key and starts its window on first use. Both run in one MULTI so
// a counter can never outlive its window.
func (r *RateLimiter) incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var (
		count  *redis.IntCmd
		expire *redis.BoolCmd
	)
	if _, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, key)
		expire = pipe.ExpireNX(ctx, key, window)
		return nil
	}); err != nil {
		return 0, err
	}
	if err := expire.Err(); err != nil {
		return 0, fmt.Errorf("failed to set window on %s: %w", key, err)
	}
	return count.Result()
}
