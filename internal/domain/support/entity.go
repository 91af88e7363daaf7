package support

import "time"

type TicketCategory string

const (
	CategoryGeneral        TicketCategory = "general"
	CategoryBilling        TicketCategory = "billing"
	CategoryTechnical      TicketCategory = "technical"
	CategoryAccount        TicketCategory = "account"
	CategoryFeatureRequest TicketCategory = "feature_request"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type Ticket struct {
	ID        string         `json:"id"`
	UserID    *string        `json:"user_id,omitempty"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Subject   string         `json:"subject"`
	Message   string         `json:"message"`
	Category  TicketCategory `json:"category"`
	Priority  TicketPriority `json:"priority"`
	Status    TicketStatus   `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type FeedbackType string

const (
	FeedbackBug         FeedbackType = "bug"
	FeedbackFeature     FeedbackType = "feature"
	FeedbackImprovement FeedbackType = "improvement"
	FeedbackGeneral     FeedbackType = "general"
)

type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackReviewed FeedbackStatus = "reviewed"
	FeedbackPlanned  FeedbackStatus = "planned"
	FeedbackClosed   FeedbackStatus = "closed"
)

type Feedback struct {
	ID        string         `json:"id"`
	UserID    *string        `json:"user_id,omitempty"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Type      FeedbackType   `json:"type"`
	Rating    int            `json:"rating"`
	Message   string         `json:"message"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

func (s FeedbackStatus) IsValid() bool {
	switch s {
	case FeedbackNew, FeedbackReviewed, FeedbackPlanned, FeedbackClosed:
		return true
	}
	return false
}
