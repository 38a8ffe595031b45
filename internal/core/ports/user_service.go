package ports

import (
	"context"

	"github.com/yadev/crm-system/internal/core/domain"
)

// UserService defines use-case operations for user accounts.
type UserService interface {
	ListAll(ctx context.Context) ([]*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByUsername reports a missing user with found=false and a nil error.
	GetByUsername(ctx context.Context, username string) (user *domain.User, found bool, err error)
	// GetByUsernameAndPassword returns domain.ErrAuthenticationFailed when
	// the pair does not match a stored account.
	GetByUsernameAndPassword(ctx context.Context, username, password string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User, password string) (*domain.User, error)
	// Update replaces username, password and mail of the user identified by u.ID.
	Update(ctx context.Context, u *domain.User, password string) error
	PatchMail(ctx context.Context, id int64, mail string) error
	Delete(ctx context.Context, id int64) error
}
