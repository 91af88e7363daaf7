// internal/repository/postgres/invoice_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"invoicely-service/internal/domain/invoice"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const invoiceColumns = `id, user_id, invoice_number, client_name, client_email, items, tax_rate,
		       total, currency, status, due_date, notes, created_at, updated_at`

type InvoiceRepository struct {
	db *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func scanInvoice(row rowScanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	var itemsJSON []byte

	err := row.Scan(
		&inv.ID, &inv.UserID, &inv.InvoiceNumber, &inv.ClientName, &inv.ClientEmail, &itemsJSON, &inv.TaxRate,
		&inv.Total, &inv.Currency, &inv.Status, &inv.DueDate, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}

	inv.Items = []invoice.LineItem{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
	}
	return &inv, nil
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	query := `
		INSERT INTO invoices (
			id, user_id, invoice_number, client_name, client_email, items, tax_rate,
			total, currency, status, due_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		inv.ID, inv.UserID, inv.InvoiceNumber, inv.ClientName, inv.ClientEmail, itemsJSON, inv.TaxRate,
		inv.Total, inv.Currency, inv.Status, inv.DueDate, inv.Notes,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return xerrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) FindByID(ctx context.Context, userID, id string) (*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND user_id = $2`
	return scanInvoice(r.db.QueryRow(ctx, query, id, userID))
}

// ListByUser returns a user's invoices newest first, optionally narrowed by status and search.
func (r *InvoiceRepository) ListByUser(ctx context.Context, userID string, filters *invoice.ListFilters) ([]invoice.Invoice, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argPos := 2

	if filters != nil {
		if len(filters.Statuses) > 0 {
			conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argPos))
			args = append(args, pq.Array(filters.Statuses))
			argPos++
		}

		if s := strings.TrimSpace(filters.Search); s != "" {
			conditions = append(conditions, fmt.Sprintf(
				"(invoice_number ILIKE $%d OR client_name ILIKE $%d OR client_email ILIKE $%d)",
				argPos, argPos, argPos,
			))
			args = append(args, "%"+s+"%")
			argPos++
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY created_at DESC`,
		invoiceColumns, strings.Join(conditions, " AND "))

	return r.list(ctx, query, args...)
}

func (r *InvoiceRepository) ListAll(ctx context.Context) ([]invoice.Invoice, error) {
	return r.list(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at DESC`)
}

func (r *InvoiceRepository) list(ctx context.Context, query string, args ...interface{}) ([]invoice.Invoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []invoice.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	query := `
		UPDATE invoices SET
			client_name = $1, client_email = $2, items = $3, tax_rate = $4, total = $5,
			currency = $6, due_date = $7, notes = $8, updated_at = NOW()
		WHERE id = $9 AND user_id = $10
		RETURNING updated_at
	`

	err = r.db.QueryRow(ctx, query,
		inv.ClientName, inv.ClientEmail, itemsJSON, inv.TaxRate, inv.Total,
		inv.Currency, inv.DueDate, inv.Notes, inv.ID, inv.UserID,
	).Scan(&inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, userID, id string, status invoice.Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`, status, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *InvoiceRepository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
