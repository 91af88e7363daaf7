// internal/service/auth/provider.go
package auth

import (
	"context"
	"fmt"
	"strings"

	"invoicely-service/internal/domain/auth"
	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	ProviderLocal    = "local"
	ProviderSupabase = "supabase"
)

// Provider checks credentials against an identity backend. The service owns the
// users table, sessions and tokens; a provider only vouches for an identity.
type Provider interface {
	Name() string
	SignUp(ctx context.Context, email, password string) (*auth.Identity, error)
	SignIn(ctx context.Context, email, password string) (*auth.Identity, error)
	// SendPasswordReset reports true when the provider emails the reset link itself.
	SendPasswordReset(ctx context.Context, email, redirectURL string) (bool, error)
	// HashPassword prepares a new password for storage in users.password_hash.
	HashPassword(password string) (string, error)
}

// LocalProvider keeps bcrypt hashes in the users table.
type LocalProvider struct {
	users user.Repository
	cost  int
}

func NewLocalProvider(users user.Repository) *LocalProvider {
	return &LocalProvider{users: users, cost: bcrypt.DefaultCost}
}

func (p *LocalProvider) Name() string { return ProviderLocal }

func (p *LocalProvider) SignUp(_ context.Context, email, password string) (*auth.Identity, error) {
	hash, err := p.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &auth.Identity{
		ExternalID:   uuid.NewString(),
		Email:        strings.ToLower(email),
		Provider:     ProviderLocal,
		PasswordHash: hash,
	}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	u, err := p.users.FindByEmail(ctx, email)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if u.PasswordHash == "" {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid credentials")
	}

	return &auth.Identity{ExternalID: u.ID, Email: u.Email, Provider: ProviderLocal}, nil
}

func (p *LocalProvider) SendPasswordReset(context.Context, string, string) (bool, error) {
	return false, nil
}

func (p *LocalProvider) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
