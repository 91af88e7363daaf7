package paymentmethod

import (
	"context"

	xerrors "invoicely-service/internal/pkg/errors"
)

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]PaymentMethod, error)
	FindByID(ctx context.Context, userID, id string) (*PaymentMethod, error)
	// Create appends the method after the user's current last order index.
	Create(ctx context.Context, pm *PaymentMethod) error
	UpdateDetails(ctx context.Context, userID, id string, details map[string]string) error
	ToggleActive(ctx context.Context, userID, id string) (bool, error)
	// Delete removes the method and closes the gap in order indices.
	Delete(ctx context.Context, userID, id string) error
	// Reorder rewrites every order index in one transaction. orderedIDs must
	// name exactly the user's methods.
	Reorder(ctx context.Context, userID string, orderedIDs []string) error
}

// ValidateOrder checks that orderedIDs names every owned id exactly once.
func ValidateOrder(owned map[string]bool, orderedIDs []string) error {
	if len(orderedIDs) != len(owned) {
		return xerrors.Invalid("reorder must list all %d payment methods, got %d", len(owned), len(orderedIDs))
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !owned[id] {
			return xerrors.Invalid("unknown payment method %q", id)
		}
		if seen[id] {
			return xerrors.Invalid("payment method %q listed twice", id)
		}
		seen[id] = true
	}
	return nil
}
