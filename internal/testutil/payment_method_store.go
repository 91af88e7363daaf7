package testutil

import (
	"context"
	"sort"
	"time"

	"invoicely-service/internal/domain/paymentmethod"
	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/samber/lo"
)

// InMemoryPaymentMethodStore implements paymentmethod.Repository
type InMemoryPaymentMethodStore struct {
	*InMemoryStore[paymentmethod.PaymentMethod]

	// Calls counts every repository call, so tests can assert nothing reached the store.
	Calls int
}

func NewInMemoryPaymentMethodStore() *InMemoryPaymentMethodStore {
	return &InMemoryPaymentMethodStore{InMemoryStore: NewInMemoryStore[paymentmethod.PaymentMethod]()}
}

func copyMethod(pm paymentmethod.PaymentMethod) paymentmethod.PaymentMethod {
	pm.Details = lo.Assign(map[string]string{}, pm.Details)
	return pm
}

func (s *InMemoryPaymentMethodStore) ListByUser(ctx context.Context, userID string) ([]paymentmethod.PaymentMethod, error) {
	s.Calls++
	methods := s.List(ctx, func(pm paymentmethod.PaymentMethod) bool { return pm.UserID == userID })
	sort.SliceStable(methods, func(i, j int) bool { return methods[i].OrderIndex < methods[j].OrderIndex })
	return lo.Map(methods, func(pm paymentmethod.PaymentMethod, _ int) paymentmethod.PaymentMethod {
		return copyMethod(pm)
	}), nil
}

func (s *InMemoryPaymentMethodStore) FindByID(ctx context.Context, userID, id string) (*paymentmethod.PaymentMethod, error) {
	s.Calls++
	pm, err := s.Get(ctx, id)
	if err != nil || pm.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	pm = copyMethod(pm)
	return &pm, nil
}

func (s *InMemoryPaymentMethodStore) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	s.Calls++
	return s.Mutate(func(items map[string]paymentmethod.PaymentMethod) error {
		next := 0
		for _, existing := range items {
			if existing.UserID == pm.UserID && existing.OrderIndex >= next {
				next = existing.OrderIndex + 1
			}
		}
		pm.OrderIndex = next
		pm.CreatedAt = time.Now()
		pm.UpdatedAt = pm.CreatedAt
		items[pm.ID] = copyMethod(*pm)
		s.order = append(s.order, pm.ID)
		return nil
	})
}

func (s *InMemoryPaymentMethodStore) UpdateDetails(ctx context.Context, userID, id string, details map[string]string) error {
	s.Calls++
	_, err := s.Update(ctx, id, func(pm paymentmethod.PaymentMethod) (paymentmethod.PaymentMethod, error) {
		if pm.UserID != userID {
			return pm, xerrors.ErrNotFound
		}
		pm.Details = lo.Assign(map[string]string{}, details)
		return pm, nil
	})
	return err
}

func (s *InMemoryPaymentMethodStore) ToggleActive(ctx context.Context, userID, id string) (bool, error) {
	s.Calls++
	pm, err := s.Update(ctx, id, func(pm paymentmethod.PaymentMethod) (paymentmethod.PaymentMethod, error) {
		if pm.UserID != userID {
			return pm, xerrors.ErrNotFound
		}
		pm.IsActive = !pm.IsActive
		return pm, nil
	})
	if err != nil {
		return false, err
	}
	return pm.IsActive, nil
}

func (s *InMemoryPaymentMethodStore) Delete(ctx context.Context, userID, id string) error {
	s.Calls++
	pm, err := s.Get(ctx, id)
	if err != nil || pm.UserID != userID {
		return xerrors.ErrNotFound
	}
	if err := s.InMemoryStore.Delete(ctx, id); err != nil {
		return err
	}
	return s.Mutate(func(items map[string]paymentmethod.PaymentMethod) error {
		for key, other := range items {
			if other.UserID == userID && other.OrderIndex > pm.OrderIndex {
				other.OrderIndex--
				items[key] = other
			}
		}
		return nil
	})
}

func (s *InMemoryPaymentMethodStore) Reorder(ctx context.Context, userID string, orderedIDs []string) error {
	s.Calls++
	return s.Mutate(func(items map[string]paymentmethod.PaymentMethod) error {
		owned := make(map[string]bool)
		for id, pm := range items {
			if pm.UserID == userID {
				owned[id] = true
			}
		}
		if err := paymentmethod.ValidateOrder(owned, orderedIDs); err != nil {
			return err
		}
		for i, id := range orderedIDs {
			pm := items[id]
			pm.OrderIndex = i
			items[id] = pm
		}
		return nil
	})
}
