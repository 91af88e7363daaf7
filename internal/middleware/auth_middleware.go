// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"invoicely-service/internal/pkg/jwt"
	"invoicely-service/internal/pkg/response"
	"invoicely-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID  = "user_id"
	ctxJTI     = "jti"
	ctxRole    = "role"
	ctxEmail   = "email"
	ctxClaims  = "claims"
	ctxSession = "session"
)

type AuthMiddleware struct {
	verifier *jwt.Verifier
	sessions session.Store
}

func NewAuthMiddleware(verifier *jwt.Verifier, sessions session.Store) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		sessions: sessions,
	}
}

// Auth requires a valid access token backed by a live session. The role set on
// the context is the one stored with the session, never one sent by the client.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, sd, err := m.authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		setIdentity(c, claims, sd)
		c.Next()
	}
}

// RequireAdmin must run after Auth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "admin role required")
			return
		}
		c.Next()
	}
}

// AdminOnly returns Auth followed by RequireAdmin.
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireAdmin(),
	}
}

// OptionalAuth sets the identity when a valid token is present and never aborts.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if claims, sd, err := m.authenticate(c.Request.Context(), token); err == nil {
				setIdentity(c, claims, sd)
			}
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(ctx context.Context, token string) (*jwt.Claims, *session.SessionData, error) {
	claims, err := m.verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, nil, err
	}

	blacklisted, err := m.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if blacklisted {
		return nil, nil, errTokenRevoked
	}

	sd, err := m.sessions.GetSession(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	return claims, sd, nil
}

func setIdentity(c *gin.Context, claims *jwt.Claims, sd *session.SessionData) {
	c.Set(ctxUserID, sd.UserID)
	c.Set(ctxJTI, claims.ID)
	c.Set(ctxRole, sd.Role)
	c.Set(ctxEmail, sd.Email)
	c.Set(ctxClaims, claims)
	c.Set(ctxSession, sd)
}

// extractToken reads a Bearer header, falling back to ?token= for websocket upgrades.
func extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return c.Query("token")
}
