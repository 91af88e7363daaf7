// internal/service/admin/admin.go
package admin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"invoicely-service/internal/domain/admin"
	"invoicely-service/internal/domain/invoice"
	"invoicely-service/internal/domain/support"
	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/filter"
	"invoicely-service/internal/pkg/metrics"
	"invoicely-service/internal/pkg/session"
	"invoicely-service/internal/service/analytics"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// SessionStore is the part of the session manager the admin actions need.
type SessionStore interface {
	UpdateSessions(ctx context.Context, userID string, mutate func(*session.SessionData)) error
	InvalidateAllUserSessions(ctx context.Context, userID string) error
}

// Notifier pushes admin-driven changes to connected clients.
type Notifier interface {
	NotifyPlanChanged(userID string, plan user.Plan, expiresAt *time.Time)
	ForceLogout(userID, reason string)
	StatsInvalidated(reason, userID string)
}

// Searchable fields per collection.
var (
	UserFields filter.Fields[user.User] = func(u user.User) []string {
		return []string{u.FullName, u.Email, string(u.Plan)}
	}
	InvoiceFields filter.Fields[invoice.Invoice] = func(i invoice.Invoice) []string {
		return []string{i.InvoiceNumber, i.ClientName, i.ClientEmail, string(i.Status)}
	}
	TicketFields filter.Fields[support.Ticket] = func(t support.Ticket) []string {
		return []string{t.Name, t.Email, t.Subject, string(t.Category), string(t.Status)}
	}
	FeedbackFields filter.Fields[support.Feedback] = func(f support.Feedback) []string {
		return []string{f.Name, f.Email, f.Message, string(f.Type)}
	}
)

type AdminService struct {
	users    user.Repository
	invoices invoice.Repository
	tickets  support.TicketRepository
	feedback support.FeedbackRepository
	sessions SessionStore
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewAdminService(
	users user.Repository,
	invoices invoice.Repository,
	tickets support.TicketRepository,
	feedback support.FeedbackRepository,
	sessions SessionStore,
	notifier Notifier,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		users:    users,
		invoices: invoices,
		tickets:  tickets,
		feedback: feedback,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ========== Overview ==========

// GetOverview loads all four collections concurrently. A collection that fails
// to load is reported in Warnings and counted as empty; the rest still render.
func (s *AdminService) GetOverview(ctx context.Context, query string) (*admin.Overview, error) {
	var (
		users    []user.User
		invoices []invoice.Invoice
		tickets  []support.Ticket
		feedback []support.Feedback
	)
	var usersErr, invoicesErr, ticketsErr, fbErr error

	var wg conc.WaitGroup
	wg.Go(func() { users, usersErr = s.users.ListAll(ctx) })
	wg.Go(func() { invoices, invoicesErr = s.invoices.ListAll(ctx) })
	wg.Go(func() { tickets, ticketsErr = s.tickets.ListAll(ctx) })
	wg.Go(func() { feedback, fbErr = s.feedback.ListAll(ctx) })
	wg.Wait()

	overview := &admin.Overview{}
	for _, f := range []struct {
		collection admin.Collection
		err        error
	}{
		{admin.CollectionUsers, usersErr},
		{admin.CollectionInvoices, invoicesErr},
		{admin.CollectionTickets, ticketsErr},
		{admin.CollectionFeedback, fbErr},
	} {
		if f.err == nil {
			continue
		}
		s.logger.Error("failed to load admin collection",
			zap.String("collection", string(f.collection)),
			zap.Error(f.err))
		metrics.CollectionFetchFailures.WithLabelValues(string(f.collection)).Inc()
		overview.Warnings = append(overview.Warnings, fmt.Sprintf("%s unavailable", f.collection))
	}

	overview.Stats = analytics.ComputeAdminStats(users, invoices, tickets, feedback, s.now())
	overview.Users = orEmpty(filter.Apply(users, query, UserFields))
	overview.Invoices = orEmpty(filter.Apply(invoices, query, InvoiceFields))
	overview.Tickets = orEmpty(filter.Apply(tickets, query, TicketFields))
	overview.Feedback = orEmpty(filter.Apply(feedback, query, FeedbackFields))

	metrics.StatsComputations.WithLabelValues("admin_overview").Inc()
	return overview, nil
}

func (s *AdminService) ListUsers(ctx context.Context, query string) ([]user.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return filter.Apply(users, query, UserFields), nil
}

func (s *AdminService) ListInvoices(ctx context.Context, query string) ([]invoice.Invoice, error) {
	invoices, err := s.invoices.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return filter.Apply(invoices, query, InvoiceFields), nil
}

func (s *AdminService) ListTickets(ctx context.Context, query string) ([]support.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list tickets", zap.Error(err))
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return filter.Apply(tickets, query, TicketFields), nil
}

func (s *AdminService) ListFeedback(ctx context.Context, query string) ([]support.Feedback, error) {
	feedback, err := s.feedback.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list feedback", zap.Error(err))
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return filter.Apply(feedback, query, FeedbackFields), nil
}

// ========== Mutations ==========

// UpdateUserPlan sets the plan and its expiry in one write: paid plans expire
// 30 days from now, free has no expiry.
func (s *AdminService) UpdateUserPlan(ctx context.Context, userID string, plan user.Plan) (*user.User, error) {
	if !plan.IsValid() {
		return nil, xerrors.Invalid("plan must be one of free, pro, agency")
	}

	expiresAt := user.ExpiryFor(plan, s.now())
	u, err := s.users.UpdatePlan(ctx, userID, plan, expiresAt)
	if err != nil {
		if !xerrors.Is(err, xerrors.ErrNotFound) {
			s.logger.Error("failed to update plan", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	if err := s.sessions.UpdateSessions(ctx, userID, func(sd *session.SessionData) {
		sd.Plan = string(plan)
	}); err != nil {
		s.logger.Warn("failed to refresh sessions after plan change", zap.String("user_id", userID), zap.Error(err))
	}

	metrics.PlanChanges.WithLabelValues(string(plan), "admin").Inc()
	s.notifier.NotifyPlanChanged(userID, plan, expiresAt)
	s.notifier.StatsInvalidated("plan_changed", userID)

	s.logger.Info("user plan updated",
		zap.String("user_id", userID),
		zap.String("plan", string(plan)),
	)
	return u, nil
}

// ToggleUserBan flips the ban flag and returns the new value. Banning revokes
// every live session of the user.
func (s *AdminService) ToggleUserBan(ctx context.Context, userID string) (*user.BanResponse, error) {
	banned, err := s.users.ToggleBan(ctx, userID)
	if err != nil {
		if !xerrors.Is(err, xerrors.ErrNotFound) {
			s.logger.Error("failed to toggle ban", zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	if banned {
		if err := s.sessions.InvalidateAllUserSessions(ctx, userID); err != nil {
			s.logger.Error("failed to revoke sessions of banned user", zap.String("user_id", userID), zap.Error(err))
		}
		s.notifier.ForceLogout(userID, "account banned")
	}

	metrics.BanToggles.WithLabelValues(strconv.FormatBool(banned)).Inc()
	s.notifier.StatsInvalidated("ban_toggled", userID)

	s.logger.Info("user ban toggled", zap.String("user_id", userID), zap.Bool("is_banned", banned))
	return &user.BanResponse{UserID: userID, IsBanned: banned}, nil
}

func (s *AdminService) UpdateTicketStatus(ctx context.Context, id string, status support.TicketStatus) error {
	if !status.IsValid() {
		return xerrors.Invalid("unknown ticket status %q", status)
	}
	if err := s.tickets.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.notifier.StatsInvalidated("ticket_updated", "")
	return nil
}

func (s *AdminService) UpdateFeedbackStatus(ctx context.Context, id string, status support.FeedbackStatus) error {
	if !status.IsValid() {
		return xerrors.Invalid("unknown feedback status %q", status)
	}
	if err := s.feedback.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.notifier.StatsInvalidated("feedback_updated", "")
	return nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
