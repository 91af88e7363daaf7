package support

import "context"

type TicketRepository interface {
	Create(ctx context.Context, t *Ticket) error
	ListAll(ctx context.Context) ([]Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]Ticket, error)
	UpdateStatus(ctx context.Context, id string, status TicketStatus) error
}

type FeedbackRepository interface {
	Create(ctx context.Context, f *Feedback) error
	ListAll(ctx context.Context) ([]Feedback, error)
	ListByUser(ctx context.Context, userID string) ([]Feedback, error)
	UpdateStatus(ctx context.Context, id string, status FeedbackStatus) error
}
