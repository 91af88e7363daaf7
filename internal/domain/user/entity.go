package user

import "time"

type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanAgency Plan = "agency"
)

// PlanDuration is how long a paid plan lasts after it is granted.
const PlanDuration = 30 * 24 * time.Hour

func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanPro, PlanAgency:
		return true
	}
	return false
}

// ExpiryFor returns the plan_expires_at value a plan change must write:
// now + 30 days for paid plans, nil for free.
func ExpiryFor(plan Plan, now time.Time) *time.Time {
	if plan == PlanFree {
		return nil
	}
	expires := now.Add(PlanDuration)
	return &expires
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID            string     `json:"id"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email"`
	Plan          Plan       `json:"plan"`
	PlanExpiresAt *time.Time `json:"plan_expires_at"`
	IsBanned      bool       `json:"is_banned"`
	Role          Role       `json:"role"`
	AuthProvider  string     `json:"auth_provider"`
	PasswordHash  string     `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
