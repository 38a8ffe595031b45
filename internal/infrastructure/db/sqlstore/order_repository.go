package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yadev/crm-system/internal/core/domain"
)

const orderColumns = "id, label, adr_et, number_of_days, tva, status, type, notes, customer_id"

type OrderRepository struct {
	s *Store
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{s: s}
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Label, &o.Address, &o.NumberOfDays, &o.Tax, &o.Status, &o.Type, &o.Notes, &o.CustomerID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.s.queryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?"+r.s.lockClause(ctx), id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY label ASC, id ASC")
}

func (r *OrderRepository) FindByCustomer(ctx context.Context, customerID int64) ([]*domain.Order, error) {
	return r.list(ctx, "SELECT "+orderColumns+" FROM orders WHERE customer_id = ? ORDER BY id ASC", customerID)
}

func (r *OrderRepository) CountByCustomer(ctx context.Context, customerID int64) (int64, error) {
	var n int64
	err := r.s.queryRow(ctx, "SELECT COUNT(*) FROM orders WHERE customer_id = ?", customerID).Scan(&n)
	return n, err
}

func (r *OrderRepository) Save(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	saved := *o
	if o.ID == 0 {
		err := r.s.queryRow(ctx,
			`INSERT INTO orders (label, adr_et, number_of_days, tva, status, type, notes, customer_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			o.Label, o.Address, o.NumberOfDays, o.Tax, o.Status, o.Type, o.Notes, o.CustomerID,
		).Scan(&saved.ID)
		if isForeignKeyViolation(err) {
			return nil, domain.ErrCustomerReference
		}
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}

	res, err := r.s.exec(ctx,
		`UPDATE orders SET label = ?, adr_et = ?, number_of_days = ?, tva = ?, status = ?,
		 type = ?, notes = ?, customer_id = ? WHERE id = ?`,
		o.Label, o.Address, o.NumberOfDays, o.Tax, o.Status, o.Type, o.Notes, o.CustomerID, o.ID,
	)
	if isForeignKeyViolation(err) {
		return nil, domain.ErrCustomerReference
	}
	if err != nil {
		return nil, err
	}
	if err := mustAffect(res, domain.ErrOrderNotFound); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.s.exec(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return err
	}
	return mustAffect(res, domain.ErrOrderNotFound)
}
