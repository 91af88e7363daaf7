package user

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListAll(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id, fullName string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdatePlan writes plan and expiry in one statement; last write wins.
	UpdatePlan(ctx context.Context, id string, plan Plan, expiresAt *time.Time) (*User, error)
	// ToggleBan flips is_banned atomically and returns the new value.
	ToggleBan(ctx context.Context, id string) (bool, error)
	// PromoteByEmail grants a role to an existing account only.
	PromoteByEmail(ctx context.Context, email string, role Role) (bool, error)
	// DowngradeExpired moves users whose paid plan expired before now back to free.
	DowngradeExpired(ctx context.Context, now time.Time) ([]string, error)
}
