// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	PurposeAccess        = "access"
	PurposePasswordReset = "password_reset"
)

// Claims carries the authenticated user and the role read from the users table at sign-in.
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email,omitempty"`
	Role    string `json:"role"`
	Device  string `json:"device,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token was issued to an admin account.
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string) bool {
	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}
	return false
}
