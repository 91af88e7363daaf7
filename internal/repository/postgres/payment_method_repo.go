// internal/repository/postgres/payment_method_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"invoicely-service/internal/domain/paymentmethod"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const paymentMethodColumns = `id, user_id, type, details, is_active, order_index, created_at, updated_at`

type PaymentMethodRepository struct {
	db        *pgxpool.Pool
	dbWrapper *DB
}

func NewPaymentMethodRepository(db *pgxpool.Pool, dbWrapper *DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db, dbWrapper: dbWrapper}
}

func scanPaymentMethod(row rowScanner) (*paymentmethod.PaymentMethod, error) {
	var pm paymentmethod.PaymentMethod
	var detailsJSON []byte

	err := row.Scan(&pm.ID, &pm.UserID, &pm.Type, &detailsJSON, &pm.IsActive, &pm.OrderIndex, &pm.CreatedAt, &pm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment method: %w", err)
	}

	pm.Details = map[string]string{}
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &pm.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal details: %w", err)
		}
	}
	return &pm, nil
}

func (r *PaymentMethodRepository) ListByUser(ctx context.Context, userID string) ([]paymentmethod.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE user_id = $1 ORDER BY order_index ASC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment methods: %w", err)
	}
	defer rows.Close()

	methods := []paymentmethod.PaymentMethod{}
	for rows.Next() {
		pm, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, *pm)
	}
	return methods, rows.Err()
}

func (r *PaymentMethodRepository) FindByID(ctx context.Context, userID, id string) (*paymentmethod.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE id = $1 AND user_id = $2`
	return scanPaymentMethod(r.db.QueryRow(ctx, query, id, userID))
}

// Create places the new method after the user's last one. The user's rows are
// locked so concurrent creates cannot pick the same index.
func (r *PaymentMethodRepository) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	detailsJSON, err := json.Marshal(pm.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	return r.dbWrapper.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT id FROM payment_methods WHERE user_id = $1 FOR UPDATE`, pm.UserID); err != nil {
			return fmt.Errorf("failed to lock payment methods: %w", err)
		}

		err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(order_index), -1) + 1 FROM payment_methods WHERE user_id = $1`, pm.UserID,
		).Scan(&pm.OrderIndex)
		if err != nil {
			return fmt.Errorf("failed to compute order index: %w", err)
		}

		query := `
			INSERT INTO payment_methods (id, user_id, type, details, is_active, order_index)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err = tx.QueryRow(ctx, query,
			pm.ID, pm.UserID, pm.Type, detailsJSON, pm.IsActive, pm.OrderIndex,
		).Scan(&pm.CreatedAt, &pm.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create payment method: %w", err)
		}
		return nil
	})
}

func (r *PaymentMethodRepository) UpdateDetails(ctx context.Context, userID, id string, details map[string]string) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE payment_methods SET details = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		detailsJSON, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *PaymentMethodRepository) ToggleActive(ctx context.Context, userID, id string) (bool, error) {
	var active bool
	err := r.db.QueryRow(ctx,
		`UPDATE payment_methods SET is_active = NOT is_active, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 RETURNING is_active`, id, userID,
	).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, xerrors.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle payment method: %w", err)
	}
	return active, nil
}

func (r *PaymentMethodRepository) Delete(ctx context.Context, userID, id string) error {
	return r.dbWrapper.WithTx(ctx, func(tx pgx.Tx) error {
		var removed int
		err := tx.QueryRow(ctx,
			`DELETE FROM payment_methods WHERE id = $1 AND user_id = $2 RETURNING order_index`, id, userID,
		).Scan(&removed)
		if errors.Is(err, pgx.ErrNoRows) {
			return xerrors.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to delete payment method: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE payment_methods SET order_index = order_index - 1, updated_at = NOW()
			 WHERE user_id = $1 AND order_index > $2`, userID, removed,
		)
		if err != nil {
			return fmt.Errorf("failed to compact order indices: %w", err)
		}
		return nil
	})
}

// Reorder assigns order_index = position in orderedIDs. Either every row is
// rewritten or none is.
func (r *PaymentMethodRepository) Reorder(ctx context.Context, userID string, orderedIDs []string) error {
	return r.dbWrapper.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT id FROM payment_methods WHERE user_id = $1 FOR UPDATE`, userID)
		if err != nil {
			return fmt.Errorf("failed to lock payment methods: %w", err)
		}
		owned := make(map[string]bool)
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan payment method id: %w", err)
			}
			owned[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read payment methods: %w", err)
		}

		if err := paymentmethod.ValidateOrder(owned, orderedIDs); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE payment_methods AS pm
			SET order_index = o.ord - 1, updated_at = NOW()
			FROM unnest($1::uuid[]) WITH ORDINALITY AS o(id, ord)
			WHERE pm.id = o.id AND pm.user_id = $2
		`, pq.Array(orderedIDs), userID)
		if err != nil {
			return fmt.Errorf("failed to reorder payment methods: %w", err)
		}
		return nil
	})
}
