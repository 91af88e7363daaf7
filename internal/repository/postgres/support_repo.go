// internal/repository/postgres/support_repo.go
package postgres

import (
	"context"
	"fmt"

	"invoicely-service/internal/domain/support"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketColumns = `id, user_id, name, email, subject, message, category, priority, status, created_at, updated_at`

type TicketRepository struct {
	db *pgxpool.Pool
}

func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *support.Ticket) error {
	query := `
		INSERT INTO support_tickets (id, user_id, name, email, subject, message, category, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Name, t.Email, t.Subject, t.Message, t.Category, t.Priority, t.Status,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) ListAll(ctx context.Context) ([]support.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM support_tickets ORDER BY created_at DESC`)
}

func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]support.Ticket, error) {
	return r.list(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *TicketRepository) list(ctx context.Context, query string, args ...interface{}) ([]support.Ticket, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	tickets := []support.Ticket{}
	for rows.Next() {
		var t support.Ticket
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Name, &t.Email, &t.Subject, &t.Message,
			&t.Category, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *TicketRepository) UpdateStatus(ctx context.Context, id string, status support.TicketStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE support_tickets SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

const feedbackColumns = `id, user_id, name, email, type, rating, message, status, created_at`

type FeedbackRepository struct {
	db *pgxpool.Pool
}

func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *support.Feedback) error {
	query := `
		INSERT INTO feedback (id, user_id, name, email, type, rating, message, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		f.ID, f.UserID, f.Name, f.Email, f.Type, f.Rating, f.Message, f.Status,
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) ListAll(ctx context.Context) ([]support.Feedback, error) {
	return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback ORDER BY created_at DESC`)
}

func (r *FeedbackRepository) ListByUser(ctx context.Context, userID string) ([]support.Feedback, error) {
	return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *FeedbackRepository) list(ctx context.Context, query string, args ...interface{}) ([]support.Feedback, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	items := []support.Feedback{}
	for rows.Next() {
		var f support.Feedback
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Name, &f.Email, &f.Type, &f.Rating, &f.Message, &f.Status, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *FeedbackRepository) UpdateStatus(ctx context.Context, id string, status support.FeedbackStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE feedback SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update feedback status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
