package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

type OrderService struct {
	repo      ports.OrderRepository
	customers ports.CustomerRepository
	tx        ports.Transactor
	audit     ports.AuditRecorder
	logger    zerolog.Logger
}

func NewOrderService(
	repo ports.OrderRepository,
	customers ports.CustomerRepository,
	tx ports.Transactor,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *OrderService {
	return &OrderService{
		repo:      repo,
		customers: customers,
		tx:        tx,
		audit:     auditOrNop(audit),
		logger:    logger.With().Str("component", "order_service").Logger(),
	}
}

// ListAll returns every order sorted by label.
func (s *OrderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fail(s.logger, "list orders", err)
	}
	return orders, nil
}

func (s *OrderService) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(s.logger, "get order", err)
	}
	return o, nil
}

// GetByCustomer returns the orders referencing customerID. An unknown
// customer yields an empty list.
func (s *OrderService) GetByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	orders, err := s.repo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, fail(s.logger, "list orders by customer", err)
	}
	return orders, nil
}

// Create persists a new order after checking that its customer exists.
func (s *OrderService) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	s.logger.Debug().Str("label", o.Label).Msg("attempting to create order")

	fresh := *o
	fresh.ID = 0

	var created *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkCustomer(ctx, fresh.CustomerID); err != nil {
			return err
		}
		var err error
		created, err = s.repo.Save(ctx, &fresh)
		return err
	})
	if err != nil {
		return nil, fail(s.logger, "create order", err)
	}

	record(ctx, s.audit, domain.ResourceOrder, domain.ActionCreate, created.ID)
	return created, nil
}

// Update replaces label, address, day count, tax, status, type, notes and
// customer reference of the stored order.
func (s *OrderService) Update(ctx context.Context, o *domain.Order) error {
	s.logger.Debug().Int64("order_id", o.ID).Str("label", o.Label).Msg("attempting to update order")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, o.ID)
		if err != nil {
			return err
		}
		if err := s.checkCustomer(ctx, o.CustomerID); err != nil {
			return err
		}
		existing.ApplyFrom(o)
		_, err = s.repo.Save(ctx, existing)
		return err
	})
	if err != nil {
		return fail(s.logger, "update order", err)
	}

	record(ctx, s.audit, domain.ResourceOrder, domain.ActionUpdate, o.ID)
	return nil
}

// PatchLabel replaces only the label.
func (s *OrderService) PatchLabel(ctx context.Context, id int64, label string) error {
	s.logger.Debug().Int64("order_id", id).Msg("attempting to patch order label")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		existing.Label = label
		_, err = s.repo.Save(ctx, existing)
		return err
	})
	if err != nil {
		return fail(s.logger, "patch order label", err)
	}

	record(ctx, s.audit, domain.ResourceOrder, domain.ActionPatch, id)
	return nil
}

func (s *OrderService) Delete(ctx context.Context, id int64) error {
	s.logger.Debug().Int64("order_id", id).Msg("attempting to delete order")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return fail(s.logger, "delete order", err)
	}

	record(ctx, s.audit, domain.ResourceOrder, domain.ActionDelete, id)
	return nil
}

func (s *OrderService) checkCustomer(ctx context.Context, customerID int64) error {
	_, err := s.customers.FindByID(ctx, customerID)
	if errors.Is(err, domain.ErrCustomerNotFound) {
		return domain.ErrCustomerReference
	}
	return err
}
