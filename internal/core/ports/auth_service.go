package ports

import (
	"context"

	"github.com/yadev/crm-system/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	ParseToken(token string) (domain.Principal, error)
}
