package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
)

func newUserFixture() (*UserService, *stubUserRepo) {
	repo := newStubUserRepo()
	return NewUserService(repo, &stubTx{}, testHasher(), nil, zerolog.Nop()), repo
}

func TestUserService_Create_HashesAndDefaultsRole(t *testing.T) {
	svc, repo := newUserFixture()

	u, err := svc.Create(context.Background(), &domain.User{Username: "bob", Mail: "bob@x.io"}, "right")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	stored := repo.items[u.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "right" {
		t.Fatalf("expected password to be hashed, got %q", stored.PasswordHash)
	}
	if !stored.Roles.Has(domain.RoleUser) || len(stored.Roles) != 1 {
		t.Fatalf("expected default role USER, got %v", stored.Roles)
	}
}

func TestUserService_Create_Validation(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, &domain.User{Username: ""}, "pw"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty username, got %v", err)
	}
	if _, err := svc.Create(ctx, &domain.User{Username: "bob"}, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	if _, err := svc.Create(ctx, &domain.User{Username: "bob"}, "a"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(ctx, &domain.User{Username: "bob"}, "b"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserService_GetByUsernameAndPassword(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()
	created, _ := svc.Create(ctx, &domain.User{Username: "bob"}, "right")

	u, err := svc.GetByUsernameAndPassword(ctx, "bob", "right")
	if err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if u.ID != created.ID {
		t.Fatalf("unexpected user %+v", u)
	}

	for _, tc := range []struct{ username, password string }{
		{"bob", "wrong"},
		{"bob", "Right"},
		{"Bob", "right"},
		{"alice", "right"},
	} {
		_, err := svc.GetByUsernameAndPassword(ctx, tc.username, tc.password)
		if !errors.Is(err, domain.ErrAuthenticationFailed) || !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("%s/%s: expected authentication failure, got %v", tc.username, tc.password, err)
		}
	}
}

func TestUserService_GetByUsername_AbsentIsNotAnError(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()

	u, found, err := svc.GetByUsername(ctx, "nobody")
	if err != nil || found || u != nil {
		t.Fatalf("expected (nil, false, nil), got (%v, %v, %v)", u, found, err)
	}

	_, _ = svc.Create(ctx, &domain.User{Username: "bob"}, "pw")
	u, found, err = svc.GetByUsername(ctx, "bob")
	if err != nil || !found || u.Username != "bob" {
		t.Fatalf("expected bob, got (%v, %v, %v)", u, found, err)
	}
}

func TestUserService_PatchMail_OnlyMail(t *testing.T) {
	svc, repo := newUserFixture()
	ctx := context.Background()
	created, _ := svc.Create(ctx, &domain.User{Username: "bob", Mail: "old@x.io"}, "right")
	before := cloneUser(repo.items[created.ID])

	if err := svc.PatchMail(ctx, created.ID, "x@y.com"); err != nil {
		t.Fatalf("PatchMail returned error: %v", err)
	}
	after := repo.items[created.ID]
	if after.Mail != "x@y.com" {
		t.Fatalf("mail not patched: %q", after.Mail)
	}
	if after.Username != before.Username || after.PasswordHash != before.PasswordHash {
		t.Fatalf("username or password changed by PatchMail")
	}
	if _, err := svc.GetByUsernameAndPassword(ctx, "bob", "right"); err != nil {
		t.Fatalf("old password should still work: %v", err)
	}
}

func TestUserService_Update(t *testing.T) {
	svc, repo := newUserFixture()
	ctx := context.Background()
	created, _ := svc.Create(ctx, &domain.User{Username: "bob", Roles: domain.NewRoleSet(domain.RoleAdmin)}, "right")

	err := svc.Update(ctx, &domain.User{ID: created.ID, Username: "robert", Mail: "r@x.io"}, "newpass")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	stored := repo.items[created.ID]
	if stored.Username != "robert" || stored.Mail != "r@x.io" || !stored.Roles.Has(domain.RoleAdmin) {
		t.Fatalf("unexpected stored user %+v", stored)
	}
	if _, err := svc.GetByUsernameAndPassword(ctx, "robert", "newpass"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}

	if err := svc.Update(ctx, &domain.User{ID: 50, Username: "x"}, "pw"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("update must not create users")
	}
}

func TestUserService_DeleteThenGet(t *testing.T) {
	svc, _ := newUserFixture()
	ctx := context.Background()
	created, _ := svc.Create(ctx, &domain.User{Username: "bob"}, "pw")

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_EnsureBootstrapAdmin(t *testing.T) {
	svc, repo := newUserFixture()
	ctx := context.Background()

	created, err := svc.EnsureBootstrapAdmin(ctx, "admin", "secret")
	if err != nil || !created {
		t.Fatalf("expected admin to be created, got %v, %v", created, err)
	}
	admin, _ := repo.FindByUsername(ctx, "admin")
	if !admin.Roles.Has(domain.RoleAdmin) || !admin.Roles.Has(domain.RoleUser) {
		t.Fatalf("bootstrap admin roles: %v", admin.Roles)
	}

	created, err = svc.EnsureBootstrapAdmin(ctx, "other", "secret")
	if err != nil || created {
		t.Fatalf("second bootstrap should be a no-op, got %v, %v", created, err)
	}
}

type countingHasher struct {
	*BcryptHasher
	hashes   int
	compares int
}

func (h *countingHasher) Hash(password string) (string, error) {
	h.hashes++
	return h.BcryptHasher.Hash(password)
}

func (h *countingHasher) Compare(hash, password string) error {
	h.compares++
	return h.BcryptHasher.Compare(hash, password)
}

func TestUserService_UnknownUsernameCostsOneCompare(t *testing.T) {
	hasher := &countingHasher{BcryptHasher: testHasher()}
	svc := NewUserService(newStubUserRepo(), &stubTx{}, hasher, nil, zerolog.Nop())
	if hasher.hashes != 1 {
		t.Fatalf("expected dummy hash built at construction, got %d hashes", hasher.hashes)
	}

	for i := 0; i < 2; i++ {
		_, err := svc.GetByUsernameAndPassword(context.Background(), "ghost", "pw")
		if !errors.Is(err, domain.ErrAuthenticationFailed) {
			t.Fatalf("expected authentication failure, got %v", err)
		}
	}
	if hasher.hashes != 1 || hasher.compares != 2 {
		t.Fatalf("expected no further hashing and one compare per miss, got hashes=%d compares=%d", hasher.hashes, hasher.compares)
	}
}

func TestUserService_EnsureBootstrapAdmin_LeavesAnnouncementToCaller(t *testing.T) {
	var buf bytes.Buffer
	svc := NewUserService(newStubUserRepo(), &stubTx{}, testHasher(), nil, zerolog.New(&buf))

	created, err := svc.EnsureBootstrapAdmin(context.Background(), "root", "pw")
	if err != nil || !created {
		t.Fatalf("expected bootstrap admin, got created=%v err=%v", created, err)
	}
	if strings.Contains(buf.String(), "bootstrap admin created") {
		t.Fatalf("service announced the bootstrap admin itself: %s", buf.String())
	}
}
