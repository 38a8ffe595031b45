package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/yadev/crm-system/internal/core/domain"
)

var errStoreDown = errors.New("connection refused")

type stubTx struct {
	calls int
}

func (t *stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type stubCustomerRepo struct {
	items  map[int64]*domain.Customer
	nextID int64
	err    error
	saves  int
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{items: make(map[int64]*domain.Customer)}
}

func cloneCustomer(c *domain.Customer) *domain.Customer {
	clone := *c
	return &clone
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id int64) (*domain.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return cloneCustomer(c), nil
}

func (r *stubCustomerRepo) FindAll(_ context.Context) ([]*domain.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.Customer, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubCustomerRepo) Save(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.saves++
	copy := cloneCustomer(c)
	if copy.ID == 0 {
		r.nextID++
		copy.ID = r.nextID
	}
	r.items[copy.ID] = cloneCustomer(copy)
	return copy, nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	delete(r.items, id)
	return nil
}

type stubOrderRepo struct {
	items  map[int64]*domain.Order
	nextID int64
	err    error
	saves  int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{items: make(map[int64]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	clone := *o
	return &clone
}

func (r *stubOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	o, ok := r.items[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) sorted(keep func(*domain.Order) bool, less func(a, b *domain.Order) bool) []*domain.Order {
	out := make([]*domain.Order, 0, len(r.items))
	for _, o := range r.items {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *stubOrderRepo) FindAll(_ context.Context) ([]*domain.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.sorted(func(*domain.Order) bool { return true }, func(a, b *domain.Order) bool {
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.ID < b.ID
	}), nil
}

func (r *stubOrderRepo) FindByCustomer(_ context.Context, customerID int64) ([]*domain.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.sorted(func(o *domain.Order) bool { return o.CustomerID == customerID },
		func(a, b *domain.Order) bool { return a.ID < b.ID }), nil
}

func (r *stubOrderRepo) CountByCustomer(_ context.Context, customerID int64) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for _, o := range r.items {
		if o.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (r *stubOrderRepo) Save(_ context.Context, o *domain.Order) (*domain.Order, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.saves++
	copy := cloneOrder(o)
	if copy.ID == 0 {
		r.nextID++
		copy.ID = r.nextID
	}
	r.items[copy.ID] = cloneOrder(copy)
	return copy, nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	delete(r.items, id)
	return nil
}

type stubUserRepo struct {
	items  map[int64]*domain.User
	nextID int64
	err    error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{items: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.Roles = domain.NewRoleSet(u.Roles.Slice()...)
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.items[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*domain.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.items {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Save(_ context.Context, u *domain.User) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	for id, existing := range r.items {
		if existing.Username == u.Username && id != u.ID {
			return nil, domain.ErrUsernameTaken
		}
	}
	copy := cloneUser(u)
	if copy.ID == 0 {
		r.nextID++
		copy.ID = r.nextID
	}
	r.items[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	delete(r.items, id)
	return nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	return int64(len(r.items)), nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAudit) Record(_ context.Context, ev domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}
