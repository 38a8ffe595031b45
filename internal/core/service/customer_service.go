package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

type CustomerService struct {
	repo   ports.CustomerRepository
	orders ports.OrderRepository
	tx     ports.Transactor
	audit  ports.AuditRecorder
	logger zerolog.Logger
}

func NewCustomerService(
	repo ports.CustomerRepository,
	orders ports.OrderRepository,
	tx ports.Transactor,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *CustomerService {
	return &CustomerService{
		repo:   repo,
		orders: orders,
		tx:     tx,
		audit:  auditOrNop(audit),
		logger: logger.With().Str("component", "customer_service").Logger(),
	}
}

// ListAll returns every customer sorted by last name.
func (s *CustomerService) ListAll(ctx context.Context) ([]*domain.Customer, error) {
	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fail(s.logger, "list customers", err)
	}
	return customers, nil
}

func (s *CustomerService) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(s.logger, "get customer", err)
	}
	return c, nil
}

// Create persists a new customer. Any id on the input is ignored; the store
// assigns one.
func (s *CustomerService) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	s.logger.Debug().Str("lastname", c.LastName).Msg("attempting to create customer")

	fresh := *c
	fresh.ID = 0

	var created *domain.Customer
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.Save(ctx, &fresh)
		return err
	})
	if err != nil {
		return nil, fail(s.logger, "create customer", err)
	}

	record(ctx, s.audit, domain.ResourceCustomer, domain.ActionCreate, created.ID)
	return created, nil
}

// Update replaces every mutable field of the stored customer with c's values.
func (s *CustomerService) Update(ctx context.Context, c *domain.Customer) error {
	s.logger.Debug().Int64("customer_id", c.ID).Msg("attempting to update customer")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, c.ID)
		if err != nil {
			return err
		}
		existing.ApplyFrom(c)
		_, err = s.repo.Save(ctx, existing)
		return err
	})
	if err != nil {
		return fail(s.logger, "update customer", err)
	}

	record(ctx, s.audit, domain.ResourceCustomer, domain.ActionUpdate, c.ID)
	return nil
}

// PatchStatus sets only the active flag.
func (s *CustomerService) PatchStatus(ctx context.Context, id int64, active bool) error {
	s.logger.Debug().Int64("customer_id", id).Bool("active", active).Msg("attempting to patch customer status")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		existing.Active = active
		_, err = s.repo.Save(ctx, existing)
		return err
	})
	if err != nil {
		return fail(s.logger, "patch customer status", err)
	}

	record(ctx, s.audit, domain.ResourceCustomer, domain.ActionPatch, id)
	return nil
}

// Delete removes the customer. It refuses while orders still reference it.
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	s.logger.Debug().Int64("customer_id", id).Msg("attempting to delete customer")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		n, err := s.orders.CountByCustomer(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrCustomerHasOrders
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return fail(s.logger, "delete customer", err)
	}

	record(ctx, s.audit, domain.ResourceCustomer, domain.ActionDelete, id)
	return nil
}
