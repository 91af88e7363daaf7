package user

type UpdatePlanRequest struct {
	Plan Plan `json:"plan" binding:"required"`
}

type BanResponse struct {
	UserID   string `json:"user_id"`
	IsBanned bool   `json:"is_banned"`
}

// CSVRow is the export shape of a user.
type CSVRow struct {
	ID            string `csv:"id"`
	FullName      string `csv:"full_name"`
	Email         string `csv:"email"`
	Plan          string `csv:"plan"`
	IsBanned      bool   `csv:"is_banned"`
	PlanExpiresAt string `csv:"plan_expires_at"`
	CreatedAt     string `csv:"created_at"`
}
