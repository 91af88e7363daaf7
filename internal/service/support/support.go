// internal/service/support/support.go
package support

import (
	"context"
	"fmt"
	"strings"

	"invoicely-service/internal/domain/support"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatsNotifier is told when the counts behind the admin dashboard change.
type StatsNotifier interface {
	StatsInvalidated(reason, userID string)
}

type SupportService struct {
	tickets  support.TicketRepository
	feedback support.FeedbackRepository
	notifier StatsNotifier
	logger   *zap.Logger
}

func NewSupportService(tickets support.TicketRepository, feedback support.FeedbackRepository, notifier StatsNotifier, logger *zap.Logger) *SupportService {
	return &SupportService{
		tickets:  tickets,
		feedback: feedback,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateTicket files a ticket. userID is empty for visitors who are not signed in.
func (s *SupportService) CreateTicket(ctx context.Context, userID string, req *support.CreateTicketRequest) (*support.Ticket, error) {
	priority := req.Priority
	if priority == "" {
		priority = support.PriorityMedium
	}

	t := &support.Ticket{
		ID:       uuid.NewString(),
		UserID:   optional(userID),
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
		Category: req.Category,
		Priority: priority,
		Status:   support.TicketOpen,
	}

	if err := s.tickets.Create(ctx, t); err != nil {
		s.logger.Error("failed to create ticket", zap.Error(err))
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.logger.Info("support ticket created",
		zap.String("ticket_id", t.ID),
		zap.String("category", string(t.Category)),
		zap.Bool("signed_in", t.UserID != nil),
	)
	s.notifier.StatsInvalidated("ticket_created", userID)
	return t, nil
}

func (s *SupportService) ListMyTickets(ctx context.Context, userID string) ([]support.Ticket, error) {
	tickets, err := s.tickets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

func (s *SupportService) SubmitFeedback(ctx context.Context, userID string, req *support.SubmitFeedbackRequest) (*support.Feedback, error) {
	f := &support.Feedback{
		ID:      uuid.NewString(),
		UserID:  optional(userID),
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Type:    req.Type,
		Rating:  req.Rating,
		Message: strings.TrimSpace(req.Message),
		Status:  support.FeedbackNew,
	}

	if err := s.feedback.Create(ctx, f); err != nil {
		s.logger.Error("failed to submit feedback", zap.Error(err))
		return nil, fmt.Errorf("failed to submit feedback: %w", err)
	}

	s.notifier.StatsInvalidated("feedback_submitted", userID)
	return f, nil
}

func (s *SupportService) ListMyFeedback(ctx context.Context, userID string) ([]support.Feedback, error) {
	feedback, err := s.feedback.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return feedback, nil
}

func optional(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
