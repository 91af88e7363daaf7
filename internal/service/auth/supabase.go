// internal/service/auth/supabase.go
package auth

import (
	"context"
	"fmt"
	"strings"

	"invoicely-service/internal/domain/auth"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/nedpals/supabase-go"
)

// SupabaseProvider delegates credentials to a hosted Supabase project.
type SupabaseProvider struct {
	client *supabase.Client
}

func NewSupabaseProvider(baseURL, apiKey string) (*SupabaseProvider, error) {
	if baseURL == "" || apiKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase provider")
	}
	client := supabase.CreateClient(baseURL, apiKey)
	if client == nil {
		return nil, fmt.Errorf("failed to create supabase client")
	}
	return &SupabaseProvider{client: client}, nil
}

func (p *SupabaseProvider) Name() string { return ProviderSupabase }

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (*auth.Identity, error) {
	u, err := p.client.Auth.SignUp(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase sign up failed: %w", err)
	}
	return &auth.Identity{ExternalID: u.ID, Email: strings.ToLower(u.Email), Provider: ProviderSupabase}, nil
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	details, err := p.client.Auth.SignIn(ctx, supabase.UserCredentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.ErrUnauthorized, "invalid credentials")
	}
	return &auth.Identity{
		ExternalID: details.User.ID,
		Email:      strings.ToLower(details.User.Email),
		Provider:   ProviderSupabase,
	}, nil
}

func (p *SupabaseProvider) SendPasswordReset(ctx context.Context, email, redirectURL string) (bool, error) {
	if err := p.client.Auth.ResetPasswordForEmail(ctx, email, redirectURL); err != nil {
		return true, fmt.Errorf("supabase password reset failed: %w", err)
	}
	return true, nil
}

// HashPassword is unsupported: Supabase owns the password and resets go through its own link.
func (p *SupabaseProvider) HashPassword(string) (string, error) {
	return "", xerrors.Invalid("password changes are handled by the hosted identity provider")
}
