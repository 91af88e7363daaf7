// internal/middleware/helpers.go
package middleware

import (
	"errors"
	"time"

	"invoicely-service/internal/pkg/jwt"
	"invoicely-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

var errTokenRevoked = errors.New("token has been revoked")

// GetUserID returns the authenticated user's ID.
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxUserID)
	return id, id != ""
}

// MustGetUserID gets the user ID from context or panics
func MustGetUserID(c *gin.Context) string {
	id, ok := GetUserID(c)
	if !ok {
		panic("user_id not found in context")
	}
	return id
}

func GetJTI(c *gin.Context) (string, bool) {
	jti := c.GetString(ctxJTI)
	return jti, jti != ""
}

func GetRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == "admin"
}

// GetSession returns the session restored by Auth.
func GetSession(c *gin.Context) (*session.SessionData, bool) {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil, false
	}
	sd, ok := v.(*session.SessionData)
	return sd, ok
}

// TokenExpiry returns when the request's access token expires.
func TokenExpiry(c *gin.Context) time.Time {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return time.Time{}
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
