package testutil

import (
	"context"
	"slices"
	"time"

	"invoicely-service/internal/domain/invoice"
	xerrors "invoicely-service/internal/pkg/errors"
	"invoicely-service/internal/pkg/filter"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[invoice.Invoice]

	ListErr error
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{InMemoryStore: NewInMemoryStore[invoice.Invoice]()}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	numberTaken := len(s.List(ctx, func(i invoice.Invoice) bool { return i.InvoiceNumber == inv.InvoiceNumber })) > 0
	if numberTaken {
		return xerrors.ErrConflict
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now()
	}
	inv.UpdatedAt = inv.CreatedAt
	return s.InMemoryStore.Create(ctx, inv.ID, *inv)
}

func (s *InMemoryInvoiceStore) FindByID(ctx context.Context, userID, id string) (*invoice.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil || inv.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	return &inv, nil
}

func (s *InMemoryInvoiceStore) ListByUser(ctx context.Context, userID string, filters *invoice.ListFilters) ([]invoice.Invoice, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	items := s.List(ctx, func(i invoice.Invoice) bool {
		if i.UserID != userID {
			return false
		}
		if filters == nil {
			return true
		}
		if len(filters.Statuses) > 0 && !slices.Contains(filters.Statuses, string(i.Status)) {
			return false
		}
		return filter.Match(filters.Search, i.InvoiceNumber, i.ClientName, i.ClientEmail)
	})
	return items, nil
}

func (s *InMemoryInvoiceStore) ListAll(ctx context.Context) ([]invoice.Invoice, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.List(ctx, nil), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	updated, err := s.InMemoryStore.Update(ctx, inv.ID, func(existing invoice.Invoice) (invoice.Invoice, error) {
		if existing.UserID != inv.UserID {
			return existing, xerrors.ErrNotFound
		}
		next := *inv
		next.InvoiceNumber = existing.InvoiceNumber
		next.Status = existing.Status
		next.CreatedAt = existing.CreatedAt
		next.UpdatedAt = time.Now()
		return next, nil
	})
	if err != nil {
		return err
	}
	inv.UpdatedAt = updated.UpdatedAt
	return nil
}

func (s *InMemoryInvoiceStore) UpdateStatus(ctx context.Context, userID, id string, status invoice.Status) error {
	_, err := s.InMemoryStore.Update(ctx, id, func(existing invoice.Invoice) (invoice.Invoice, error) {
		if existing.UserID != userID {
			return existing, xerrors.ErrNotFound
		}
		existing.Status = status
		return existing, nil
	})
	return err
}

func (s *InMemoryInvoiceStore) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.FindByID(ctx, userID, id); err != nil {
		return err
	}
	return s.InMemoryStore.Delete(ctx, id)
}
