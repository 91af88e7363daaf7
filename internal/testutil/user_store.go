package testutil

import (
	"context"
	"strings"
	"time"

	"invoicely-service/internal/domain/user"
	xerrors "invoicely-service/internal/pkg/errors"
)

// InMemoryUserStore implements user.Repository
type InMemoryUserStore struct {
	*InMemoryStore[user.User]

	// ListErr, when set, is returned by ListAll.
	ListErr error
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{InMemoryStore: NewInMemoryStore[user.User]()}
}

func (s *InMemoryUserStore) Create(ctx context.Context, u *user.User) error {
	if exists, _ := s.ExistsByEmail(ctx, u.Email); exists {
		return xerrors.ErrConflict
	}
	u.Email = strings.ToLower(u.Email)
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return s.InMemoryStore.Create(ctx, u.ID, *u)
}

func (s *InMemoryUserStore) FindByID(ctx context.Context, id string) (*user.User, error) {
	u, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *InMemoryUserStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	found := s.List(ctx, func(u user.User) bool { return strings.EqualFold(u.Email, email) })
	if len(found) == 0 {
		return nil, xerrors.ErrNotFound
	}
	return &found[0], nil
}

func (s *InMemoryUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	return err == nil, nil
}

func (s *InMemoryUserStore) ListAll(ctx context.Context) ([]user.User, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return s.List(ctx, nil), nil
}

func (s *InMemoryUserStore) UpdateProfile(ctx context.Context, id, fullName string) (*user.User, error) {
	u, err := s.Update(ctx, id, func(u user.User) (user.User, error) {
		u.FullName = fullName
		u.UpdatedAt = time.Now()
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *InMemoryUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := s.Update(ctx, id, func(u user.User) (user.User, error) {
		u.PasswordHash = passwordHash
		return u, nil
	})
	return err
}

func (s *InMemoryUserStore) UpdatePlan(ctx context.Context, id string, plan user.Plan, expiresAt *time.Time) (*user.User, error) {
	u, err := s.Update(ctx, id, func(u user.User) (user.User, error) {
		u.Plan = plan
		u.PlanExpiresAt = expiresAt
		u.UpdatedAt = time.Now()
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *InMemoryUserStore) ToggleBan(ctx context.Context, id string) (bool, error) {
	u, err := s.Update(ctx, id, func(u user.User) (user.User, error) {
		u.IsBanned = !u.IsBanned
		return u, nil
	})
	if err != nil {
		return false, err
	}
	return u.IsBanned, nil
}

func (s *InMemoryUserStore) PromoteByEmail(ctx context.Context, email string, role user.Role) (bool, error) {
	u, err := s.FindByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	if u.Role == role {
		return false, nil
	}
	_, err = s.Update(ctx, u.ID, func(u user.User) (user.User, error) {
		u.Role = role
		return u, nil
	})
	return err == nil, err
}

func (s *InMemoryUserStore) DowngradeExpired(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := s.Mutate(func(items map[string]user.User) error {
		for id, u := range items {
			if u.Plan != user.PlanFree && u.PlanExpiresAt != nil && u.PlanExpiresAt.Before(now) {
				u.Plan = user.PlanFree
				u.PlanExpiresAt = nil
				items[id] = u
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}
