package ports

import (
	"context"

	"github.com/yadev/crm-system/internal/core/domain"
)

// OrderService defines use-case operations for orders.
type OrderService interface {
	ListAll(ctx context.Context) ([]*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error)
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	PatchLabel(ctx context.Context, id int64, label string) error
	Delete(ctx context.Context, id int64) error
}
