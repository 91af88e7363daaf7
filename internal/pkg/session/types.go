// internal/pkg/session/types.go
package session

import "time"

// SessionData is the explicit session context restored on every authenticated request.
type SessionData struct {
	JTI            string    `json:"jti"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	Plan           string    `json:"plan"`
	Device         string    `json:"device,omitempty"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	Provider       string    `json:"provider"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}
