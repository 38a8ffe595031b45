package api

import (
	"net/http"
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/yadev/crm-system/docs"
	"github.com/yadev/crm-system/internal/api/handler"
	"github.com/yadev/crm-system/internal/api/middleware"
	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
	"github.com/yadev/crm-system/internal/infrastructure/http/handlers"
)

// Dependencies are the services and adapters the HTTP layer is built on.
type Dependencies struct {
	Customers ports.CustomerService
	Orders    ports.OrderService
	Users     ports.UserService
	Auth      ports.AuthService
	Policy    middleware.Authorizer

	// Idempotency is optional; nil disables Idempotency-Key replay.
	Idempotency ports.IdempotencyStore
	// Health lists the dependencies checked by the readiness probe.
	Health map[string]handlers.Pinger
	Logger zerolog.Logger
}

// Route binds an endpoint to the (resource, action) pair the policy checks
// before the handler runs.
type Route struct {
	Method   string
	Path     string
	Resource domain.Resource
	Action   domain.Action
	Handler  echo.HandlerFunc
}

// echoprometheus registers its collectors globally, so the middleware is
// built once per process.
var requestMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("crm")
})

// requestLogger writes one access line per request. Only the path is logged:
// query strings can carry credentials (GET /v1/users/login).
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	log = log.With().Str("component", "http").Logger()
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// Routes returns the protected REST surface.
func Routes(deps Dependencies) []Route {
	customers := handler.NewCustomerHandler(deps.Customers, deps.Orders, deps.Idempotency, deps.Logger)
	orders := handler.NewOrderHandler(deps.Orders, deps.Idempotency, deps.Logger)
	users := handler.NewUserHandler(deps.Users, deps.Idempotency, deps.Logger)

	return []Route{
		{http.MethodGet, "/v1/customers", domain.ResourceCustomer, domain.ActionList, customers.List},
		{http.MethodGet, "/v1/customers/:id", domain.ResourceCustomer, domain.ActionRead, customers.Get},
		{http.MethodGet, "/v1/customers/:id/orders", domain.ResourceOrder, domain.ActionList, customers.ListOrders},
		{http.MethodPost, "/v1/customers", domain.ResourceCustomer, domain.ActionCreate, customers.Create},
		{http.MethodPut, "/v1/customers/:id", domain.ResourceCustomer, domain.ActionUpdate, customers.Update},
		{http.MethodPatch, "/v1/customers/:id", domain.ResourceCustomer, domain.ActionPatch, customers.PatchStatus},
		{http.MethodDelete, "/v1/customers/:id", domain.ResourceCustomer, domain.ActionDelete, customers.Delete},

		{http.MethodGet, "/v1/orders", domain.ResourceOrder, domain.ActionList, orders.List},
		{http.MethodGet, "/v1/orders/:id", domain.ResourceOrder, domain.ActionRead, orders.Get},
		{http.MethodPost, "/v1/orders", domain.ResourceOrder, domain.ActionCreate, orders.Create},
		{http.MethodPut, "/v1/orders/:id", domain.ResourceOrder, domain.ActionUpdate, orders.Update},
		{http.MethodPatch, "/v1/orders/:id", domain.ResourceOrder, domain.ActionPatch, orders.PatchLabel},
		{http.MethodDelete, "/v1/orders/:id", domain.ResourceOrder, domain.ActionDelete, orders.Delete},

		{http.MethodGet, "/v1/users", domain.ResourceUser, domain.ActionList, users.List},
		{http.MethodGet, "/v1/users/login", domain.ResourceUser, domain.ActionRead, users.Lookup},
		{http.MethodGet, "/v1/users/username/:username", domain.ResourceUser, domain.ActionRead, users.GetByUsername},
		{http.MethodGet, "/v1/users/:id", domain.ResourceUser, domain.ActionRead, users.Get},
		{http.MethodPost, "/v1/users", domain.ResourceUser, domain.ActionCreate, users.Create},
		{http.MethodPut, "/v1/users/:id", domain.ResourceUser, domain.ActionUpdate, users.Update},
		{http.MethodPatch, "/v1/users/:id", domain.ResourceUser, domain.ActionPatch, users.PatchMail},
		{http.MethodDelete, "/v1/users/:id", domain.ResourceUser, domain.ActionDelete, users.Delete},
	}
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		ExposeHeaders: []string{echo.HeaderLocation},
	}))
	e.Use(requestMetrics())

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/login", authHandler.Login)

	// --- REST API ---
	authenticate := middleware.Authenticate(deps.Auth, deps.Users)
	for _, r := range Routes(deps) {
		e.Add(r.Method, r.Path, r.Handler, authenticate, middleware.Authorize(deps.Policy, r.Resource, r.Action))
	}

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
