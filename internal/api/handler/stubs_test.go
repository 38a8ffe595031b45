package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

type stubCustomerService struct {
	listFn   func(ctx context.Context) ([]*domain.Customer, error)
	getFn    func(ctx context.Context, id int64) (*domain.Customer, error)
	createFn func(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	updateFn func(ctx context.Context, c *domain.Customer) error
	patchFn  func(ctx context.Context, id int64, active bool) error
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubCustomerService) ListAll(ctx context.Context) ([]*domain.Customer, error) {
	return s.listFn(ctx)
}

func (s *stubCustomerService) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.getFn(ctx, id)
}

func (s *stubCustomerService) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	return s.createFn(ctx, c)
}

func (s *stubCustomerService) Update(ctx context.Context, c *domain.Customer) error {
	return s.updateFn(ctx, c)
}

func (s *stubCustomerService) PatchStatus(ctx context.Context, id int64, active bool) error {
	return s.patchFn(ctx, id, active)
}

func (s *stubCustomerService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type stubOrderService struct {
	listFn       func(ctx context.Context) ([]*domain.Order, error)
	getFn        func(ctx context.Context, id int64) (*domain.Order, error)
	byCustomerFn func(ctx context.Context, customerID int64) ([]*domain.Order, error)
	createFn     func(ctx context.Context, o *domain.Order) (*domain.Order, error)
	updateFn     func(ctx context.Context, o *domain.Order) error
	patchFn      func(ctx context.Context, id int64, label string) error
	deleteFn     func(ctx context.Context, id int64) error
}

func (s *stubOrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.listFn(ctx)
}

func (s *stubOrderService) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return s.getFn(ctx, id)
}

func (s *stubOrderService) GetByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	return s.byCustomerFn(ctx, customerID)
}

func (s *stubOrderService) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	return s.createFn(ctx, o)
}

func (s *stubOrderService) Update(ctx context.Context, o *domain.Order) error {
	return s.updateFn(ctx, o)
}

func (s *stubOrderService) PatchLabel(ctx context.Context, id int64, label string) error {
	return s.patchFn(ctx, id, label)
}

func (s *stubOrderService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type stubUserService struct {
	listFn       func(ctx context.Context) ([]*domain.User, error)
	getFn        func(ctx context.Context, id int64) (*domain.User, error)
	byNameFn     func(ctx context.Context, username string) (*domain.User, bool, error)
	byPasswordFn func(ctx context.Context, username, password string) (*domain.User, error)
	createFn     func(ctx context.Context, u *domain.User, password string) (*domain.User, error)
	updateFn     func(ctx context.Context, u *domain.User, password string) error
	patchFn      func(ctx context.Context, id int64, mail string) error
	deleteFn     func(ctx context.Context, id int64) error
}

func (s *stubUserService) ListAll(ctx context.Context) ([]*domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) GetByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return s.byNameFn(ctx, username)
}

func (s *stubUserService) GetByUsernameAndPassword(ctx context.Context, username, password string) (*domain.User, error) {
	return s.byPasswordFn(ctx, username, password)
}

func (s *stubUserService) Create(ctx context.Context, u *domain.User, password string) (*domain.User, error) {
	return s.createFn(ctx, u, password)
}

func (s *stubUserService) Update(ctx context.Context, u *domain.User, password string) error {
	return s.updateFn(ctx, u, password)
}

func (s *stubUserService) PatchMail(ctx context.Context, id int64, mail string) error {
	return s.patchFn(ctx, id, mail)
}

func (s *stubUserService) Delete(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type stubAuthService struct {
	loginFn func(ctx context.Context, username, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) ParseToken(string) (domain.Principal, error) {
	return domain.Principal{}, domain.ErrUnauthenticated
}

// memIdempotency is an in-memory ports.IdempotencyStore.
type memIdempotency struct {
	mu         sync.Mutex
	records    map[string]ports.IdempotencyRecord
	reserveErr error
	released   int
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{records: map[string]ports.IdempotencyRecord{}}
}

func (m *memIdempotency) Reserve(_ context.Context, scope, key, fingerprint string) (ports.IdempotencyRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveErr != nil {
		return ports.IdempotencyRecord{}, false, m.reserveErr
	}
	if rec, ok := m.records[scope+"|"+key]; ok {
		return rec, false, nil
	}
	rec := ports.IdempotencyRecord{Fingerprint: fingerprint}
	m.records[scope+"|"+key] = rec
	return rec, true, nil
}

func (m *memIdempotency) Complete(_ context.Context, scope, key, fingerprint string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[scope+"|"+key] = ports.IdempotencyRecord{Fingerprint: fingerprint, ID: id}
	return nil
}

func (m *memIdempotency) Release(_ context.Context, scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, scope+"|"+key)
	m.released++
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newContext builds an echo context for method/target with a JSON body and
// the given path parameters (name, value pairs).
func newContext(e *echo.Echo, method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}
