// Package testutil provides in-memory repositories for service and handler tests.
package testutil

import (
	"context"
	"sync"

	xerrors "invoicely-service/internal/pkg/errors"
)

// InMemoryStore is a goroutine-safe keyed store that remembers insertion order.
type InMemoryStore[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewInMemoryStore[T any]() *InMemoryStore[T] {
	return &InMemoryStore[T]{items: make(map[string]T)}
}

func (s *InMemoryStore[T]) Create(_ context.Context, id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; ok {
		return xerrors.ErrConflict
	}
	s.items[id] = item
	s.order = append(s.order, id)
	return nil
}

func (s *InMemoryStore[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, xerrors.ErrNotFound
	}
	return item, nil
}

// List returns items in insertion order, keeping those accepted by keep (nil keeps all).
func (s *InMemoryStore[T]) List(_ context.Context, keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		if keep == nil || keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Update applies fn to the stored item under the write lock.
func (s *InMemoryStore[T]) Update(_ context.Context, id string, fn func(T) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, xerrors.ErrNotFound
	}
	updated, err := fn(item)
	if err != nil {
		return item, err
	}
	s.items[id] = updated
	return updated, nil
}

func (s *InMemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Mutate runs fn with exclusive access to every item, for multi-row updates.
func (s *InMemoryStore[T]) Mutate(fn func(items map[string]T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.items)
}
