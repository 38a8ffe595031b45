package ports

import (
	"context"

	"github.com/yadev/crm-system/internal/core/domain"
)

// Transactor runs a unit of work. The context handed to fn carries the
// transaction; repository calls made with it join that transaction. The
// work is committed when fn returns nil and rolled back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	// FindByID returns domain.ErrCustomerNotFound when no row matches.
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	// FindAll returns every customer sorted by last name, then id.
	FindAll(ctx context.Context) ([]*domain.Customer, error)
	// Save inserts c when c.ID is zero and updates it otherwise. The returned
	// snapshot carries the assigned id.
	Save(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
}

// OrderRepository persists orders.
type OrderRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	// FindAll returns every order sorted by label, then id.
	FindAll(ctx context.Context) ([]*domain.Order, error)
	FindByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error)
	CountByCustomer(ctx context.Context, customerID int64) (int64, error)
	Save(ctx context.Context, o *domain.Order) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository persists users.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindAll returns every user sorted by username, then id.
	FindAll(ctx context.Context) ([]*domain.User, error)
	// FindByUsername returns domain.ErrUserNotFound when no row matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Save returns domain.ErrUsernameTaken on a unique violation.
	Save(ctx context.Context, u *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
