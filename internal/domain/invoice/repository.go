package invoice

import "context"

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	FindByID(ctx context.Context, userID, id string) (*Invoice, error)
	ListByUser(ctx context.Context, userID string, filters *ListFilters) ([]Invoice, error)
	ListAll(ctx context.Context) ([]Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, userID, id string, status Status) error
	Delete(ctx context.Context, userID, id string) error
}
