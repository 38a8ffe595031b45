package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

type UserService struct {
	repo   ports.UserRepository
	tx     ports.Transactor
	hasher PasswordHasher
	audit  ports.AuditRecorder
	logger zerolog.Logger
	dummy  dummyHash
}

func NewUserService(
	repo ports.UserRepository,
	tx ports.Transactor,
	hasher PasswordHasher,
	audit ports.AuditRecorder,
	logger zerolog.Logger,
) *UserService {
	s := &UserService{
		repo:   repo,
		tx:     tx,
		hasher: hasher,
		audit:  auditOrNop(audit),
		logger: logger.With().Str("component", "user_service").Logger(),
	}
	// The first unknown-username miss must not pay for building the dummy hash.
	if _, err := s.dummy.get(hasher); err != nil {
		s.logger.Warn().Err(err).Msg("dummy password hash unavailable")
	}
	return s
}

// ListAll returns every user sorted by username.
func (s *UserService) ListAll(ctx context.Context) ([]*domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fail(s.logger, "list users", err)
	}
	return users, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(s.logger, "get user", err)
	}
	return u, nil
}

// GetByUsername looks a user up by name. No match is not an error.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fail(s.logger, "get user by username", err)
	}
	return u, true, nil
}

// GetByUsernameAndPassword is the credential check used by every
// authentication path. Unknown usernames still pay for a hash comparison.
func (s *UserService) GetByUsernameAndPassword(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		if hash, herr := s.dummy.get(s.hasher); herr == nil {
			_ = s.hasher.Compare(hash, password)
		}
		return nil, domain.ErrAuthenticationFailed
	case err != nil:
		return nil, fail(s.logger, "authenticate user", err)
	}

	if s.hasher.Compare(u.PasswordHash, password) != nil {
		return nil, domain.ErrAuthenticationFailed
	}
	return u, nil
}

// Create stores a new account with password hashed. Users created without
// roles get USER.
func (s *UserService) Create(ctx context.Context, u *domain.User, password string) (*domain.User, error) {
	s.logger.Debug().Str("username", u.Username).Msg("attempting to create user")

	if strings.TrimSpace(u.Username) == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fail(s.logger, "hash password", err)
	}

	fresh := *u
	fresh.ID = 0
	fresh.PasswordHash = hash
	if len(fresh.Roles) == 0 {
		fresh.Roles = domain.NewRoleSet(domain.RoleUser)
	}

	var created *domain.User
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.Save(ctx, &fresh)
		return err
	})
	if err != nil {
		return nil, fail(s.logger, "create user", err)
	}

	record(ctx, s.audit, domain.ResourceUser, domain.ActionCreate, created.ID)
	return created, nil
}

// Update replaces username, password and mail. Roles are left as stored.
func (s *UserService) Update(ctx context.Context, u *domain.User, password string) error {
	s.logger.Debug().Int64("user_id", u.ID).Msg("attempting to update user")

	if strings.TrimSpace(u.Username) == "" || password == "" {
		return domain.ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fail(s.logger, "hash password", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, u.ID)
		if err != nil {
			return err
		}
		existing.Username = u.Username
		existing.PasswordHash = hash
		existing.Mail = u.Mail
		_, err = s.repo.Save(ctx, existing)
		return err
	})
	if err != nil {
		return fail(s.logger, "update user", err)
	}

	record(ctx, s.audit, domain.ResourceUser, domain.ActionUpdate, u.ID)
	return nil
}

// PatchMail replaces only the mail address.
func (s *UserService) PatchMail(ctx context.Context, id int64, mail string) error {
	s.logger.Debug().Int64("user_id", id).Msg("attempting to patch user mail")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		existing.Mail = mail
		_, err = s.repo.Save(ctx, existing)
		return err
	})
	if err != nil {
		return fail(s.logger, "patch user mail", err)
	}

	record(ctx, s.audit, domain.ResourceUser, domain.ActionPatch, id)
	return nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	s.logger.Debug().Int64("user_id", id).Msg("attempting to delete user")

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return fail(s.logger, "delete user", err)
	}

	record(ctx, s.audit, domain.ResourceUser, domain.ActionDelete, id)
	return nil
}

// EnsureBootstrapAdmin creates an ADMIN+USER account when the user table is
// empty. It reports whether an account was created.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fail(s.logger, "count users", err)
	}
	if n > 0 {
		return false, nil
	}
	_, err = s.Create(ctx, &domain.User{
		Username: username,
		Roles:    domain.NewRoleSet(domain.RoleAdmin, domain.RoleUser),
	}, password)
	if err != nil {
		return false, err
	}
	return true, nil
}
