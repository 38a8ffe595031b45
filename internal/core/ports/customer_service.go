package ports

import (
	"context"

	"github.com/yadev/crm-system/internal/core/domain"
)

// CustomerService defines use-case operations for customers.
type CustomerService interface {
	ListAll(ctx context.Context) ([]*domain.Customer, error)
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	// Update replaces every mutable field of the customer identified by c.ID.
	Update(ctx context.Context, c *domain.Customer) error
	PatchStatus(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}
