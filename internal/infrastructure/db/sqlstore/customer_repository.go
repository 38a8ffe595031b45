package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yadev/crm-system/internal/core/domain"
)

const customerColumns = "id, lastname, firstname, company, mail, phone, mobile, notes, active"

type CustomerRepository struct {
	s *Store
}

func (s *Store) Customers() *CustomerRepository {
	return &CustomerRepository{s: s}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.LastName, &c.FirstName, &c.Company, &c.Mail, &c.Phone, &c.Mobile, &c.Notes, &c.Active)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	row := r.s.queryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = ?"+r.s.lockClause(ctx), id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	return c, err
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*domain.Customer, error) {
	rows, err := r.s.query(ctx, "SELECT "+customerColumns+" FROM customers ORDER BY lastname ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CustomerRepository) Save(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	saved := *c
	if c.ID == 0 {
		err := r.s.queryRow(ctx,
			`INSERT INTO customers (lastname, firstname, company, mail, phone, mobile, notes, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			c.LastName, c.FirstName, c.Company, c.Mail, c.Phone, c.Mobile, c.Notes, c.Active,
		).Scan(&saved.ID)
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}

	res, err := r.s.exec(ctx,
		`UPDATE customers SET lastname = ?, firstname = ?, company = ?, mail = ?, phone = ?,
		 mobile = ?, notes = ?, active = ? WHERE id = ?`,
		c.LastName, c.FirstName, c.Company, c.Mail, c.Phone, c.Mobile, c.Notes, c.Active, c.ID,
	)
	if err != nil {
		return nil, err
	}
	if err := mustAffect(res, domain.ErrCustomerNotFound); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.s.exec(ctx, "DELETE FROM customers WHERE id = ?", id)
	if isForeignKeyViolation(err) {
		return domain.ErrCustomerHasOrders
	}
	if err != nil {
		return err
	}
	return mustAffect(res, domain.ErrCustomerNotFound)
}
