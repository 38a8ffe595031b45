package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/yadev/crm-system/internal/api/metrics"
	"github.com/yadev/crm-system/internal/core/domain"
)

// Authorizer decides whether a principal may perform action on resource.
type Authorizer interface {
	Authorize(principal domain.Principal, resource domain.Resource, action domain.Action) error
}

// Authorize rejects the request before the handler runs unless the caller
// stored by Authenticate satisfies the rule for (resource, action).
func Authorize(policy Authorizer, resource domain.Resource, action domain.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := domain.PrincipalFrom(c.Request().Context())
			if err := policy.Authorize(principal, resource, action); err != nil {
				outcome := "forbidden"
				if errors.Is(err, domain.ErrUnauthenticated) {
					outcome = "unauthenticated"
				}
				metrics.AuthorizationDecisionsTotal.WithLabelValues(string(resource), string(action), outcome).Inc()
				return err
			}
			metrics.AuthorizationDecisionsTotal.WithLabelValues(string(resource), string(action), "allowed").Inc()
			return next(c)
		}
	}
}
