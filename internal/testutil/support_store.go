package testutil

import (
	"context"
	"time"

	"invoicely-service/internal/domain/support"
)

// InMemoryTicketStore implements support.TicketRepository
type InMemoryTicketStore struct {
	*InMemoryStore[support.Ticket]

	ListErr error
}

func NewInMemoryTicketStore() *InMemoryTicketStore {
	return &InMemoryTicketStore{InMemoryStore: NewInMemoryStore[support.Ticket]()}
}

func (s *InMemoryTicketStore) Create(ctx context.Context, t *support.Ticket) error {
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	return s.InMemoryStore.Create(ctx, t.ID, *t)
}

func (s *InMemoryTicketStore) ListAll(ctx context.Context) ([]support.Ticket, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.List(ctx, nil), nil
}

func (s *InMemoryTicketStore) ListByUser(ctx context.Context, userID string) ([]support.Ticket, error) {
	return s.List(ctx, func(t support.Ticket) bool { return t.UserID != nil && *t.UserID == userID }), nil
}

func (s *InMemoryTicketStore) UpdateStatus(ctx context.Context, id string, status support.TicketStatus) error {
	_, err := s.Update(ctx, id, func(t support.Ticket) (support.Ticket, error) {
		t.Status = status
		t.UpdatedAt = time.Now()
		return t, nil
	})
	return err
}

// InMemoryFeedbackStore implements support.FeedbackRepository
type InMemoryFeedbackStore struct {
	*InMemoryStore[support.Feedback]

	ListErr error
}

func NewInMemoryFeedbackStore() *InMemoryFeedbackStore {
	return &InMemoryFeedbackStore{InMemoryStore: NewInMemoryStore[support.Feedback]()}
}

func (s *InMemoryFeedbackStore) Create(ctx context.Context, f *support.Feedback) error {
	f.CreatedAt = time.Now()
	return s.InMemoryStore.Create(ctx, f.ID, *f)
}

func (s *InMemoryFeedbackStore) ListAll(ctx context.Context) ([]support.Feedback, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.List(ctx, nil), nil
}

func (s *InMemoryFeedbackStore) ListByUser(ctx context.Context, userID string) ([]support.Feedback, error) {
	return s.List(ctx, func(f support.Feedback) bool { return f.UserID != nil && *f.UserID == userID }), nil
}

func (s *InMemoryFeedbackStore) UpdateStatus(ctx context.Context, id string, status support.FeedbackStatus) error {
	_, err := s.Update(ctx, id, func(f support.Feedback) (support.Feedback, error) {
		f.Status = status
		return f, nil
	})
	return err
}
