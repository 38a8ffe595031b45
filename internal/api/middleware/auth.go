package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yadev/crm-system/internal/api/metrics"
	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

// Authenticate resolves the caller and stores it on the request context.
//
// A Bearer token is checked with auth. Basic credentials are checked against
// users. Requests without an Authorization header proceed anonymously; the
// Authorize middleware decides whether that is enough.
func Authenticate(auth ports.AuthService, users ports.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			scheme, credentials, _ := strings.Cut(header, " ")
			var (
				principal domain.Principal
				err       error
			)
			switch {
			case strings.EqualFold(scheme, "bearer"):
				principal, err = auth.ParseToken(strings.TrimSpace(credentials))
			case strings.EqualFold(scheme, "basic"):
				principal, err = basicPrincipal(c, users)
			default:
				err = fmt.Errorf("%w: unsupported authorization scheme", domain.ErrUnauthenticated)
			}
			if err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					metrics.AuthenticationFailuresTotal.WithLabelValues(strings.ToLower(scheme)).Inc()
				}
				return err
			}

			req := c.Request()
			c.SetRequest(req.WithContext(domain.WithPrincipal(req.Context(), principal)))
			return next(c)
		}
	}
}

func basicPrincipal(c echo.Context, users ports.UserService) (domain.Principal, error) {
	username, password, ok := c.Request().BasicAuth()
	if !ok || username == "" {
		return domain.Principal{}, fmt.Errorf("%w: malformed basic credentials", domain.ErrUnauthenticated)
	}
	user, err := users.GetByUsernameAndPassword(c.Request().Context(), username, password)
	if errors.Is(err, domain.ErrAuthenticationFailed) {
		return domain.Principal{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: user.ID, Username: user.Username, Roles: user.Roles}, nil
}
