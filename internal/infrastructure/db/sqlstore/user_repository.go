package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yadev/crm-system/internal/core/domain"
)

const userColumns = "id, username, password, mail, roles"

type UserRepository struct {
	s *Store
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u     domain.User
		roles string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Mail, &roles); err != nil {
		return nil, err
	}
	set, err := domain.ParseRoleSet(roles)
	if err != nil {
		return nil, fmt.Errorf("user %d: stored roles %q: %v", u.ID, roles, err)
	}
	u.Roles = set
	return &u, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.s.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE "+where+r.s.lockClause(ctx), arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.s.query(ctx, "SELECT "+userColumns+" FROM users ORDER BY username ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	saved := *u
	if u.ID == 0 {
		err := r.s.queryRow(ctx,
			"INSERT INTO users (username, password, mail, roles) VALUES (?, ?, ?, ?) RETURNING id",
			u.Username, u.PasswordHash, u.Mail, u.Roles.String(),
		).Scan(&saved.ID)
		if isUniqueViolation(err) {
			return nil, domain.ErrUsernameTaken
		}
		if err != nil {
			return nil, err
		}
		return &saved, nil
	}

	res, err := r.s.exec(ctx,
		"UPDATE users SET username = ?, password = ?, mail = ?, roles = ? WHERE id = ?",
		u.Username, u.PasswordHash, u.Mail, u.Roles.String(), u.ID,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	if err := mustAffect(res, domain.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.s.exec(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	return mustAffect(res, domain.ErrUserNotFound)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.queryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
