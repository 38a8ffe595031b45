package domain

import (
	"context"
	"sort"
	"strings"
)

// Role is a named grant held by a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// RoleSet is the set of roles held by a caller. A caller may hold several.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles, dropping duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// ParseRoleSet parses a comma-separated role list such as "ADMIN,USER".
// Names are case-insensitive and may carry a "ROLE_" prefix.
func ParseRoleSet(raw string) (RoleSet, error) {
	s := RoleSet{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		r := Role(strings.TrimPrefix(name, "ROLE_"))
		if !r.Valid() {
			return nil, ErrInvalidInput
		}
		s[r] = struct{}{}
	}
	return s, nil
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// HasAny reports whether the set contains at least one of roles.
func (s RoleSet) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the roles sorted by name.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted role names.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// String renders the set as a comma-separated list, the storage format.
func (s RoleSet) String() string {
	return strings.Join(s.Strings(), ",")
}

// User models an account that can authenticate against the API.
type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"`
	Mail         string  `json:"mail,omitempty"`
	Roles        RoleSet `json:"-"`
}

// Principal is the caller on whose behalf an operation runs.
type Principal struct {
	UserID   int64
	Username string
	Roles    RoleSet
}

// Anonymous reports whether the principal carries no identity.
func (p Principal) Anonymous() bool {
	return p.Username == ""
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored in ctx, or an anonymous one.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey{}).(Principal)
	return p
}
