// Package policy holds the role requirements for every operation the API
// exposes. The table is static: it is built once and only read afterwards.
package policy

import (
	"fmt"

	"github.com/yadev/crm-system/internal/core/domain"
)

// Requirement describes who may perform an operation.
type Requirement struct {
	// Public operations are open to every caller, anonymous included.
	Public bool
	// AnyOf lists the roles of which the caller must hold at least one.
	AnyOf []domain.Role
}

// Satisfied reports whether p meets the requirement.
func (r Requirement) Satisfied(p domain.Principal) bool {
	if r.Public {
		return true
	}
	return !p.Anonymous() && p.Roles.HasAny(r.AnyOf...)
}

type key struct {
	resource domain.Resource
	action   domain.Action
}

// Policy maps (resource, action) pairs to requirements.
type Policy struct {
	rules map[key]Requirement
}

var (
	public      = Requirement{Public: true}
	adminOnly   = Requirement{AnyOf: []domain.Role{domain.RoleAdmin}}
	userOrAdmin = Requirement{AnyOf: []domain.Role{domain.RoleUser, domain.RoleAdmin}}
)

// Default returns the CRM access policy.
//
//	resource  list/read     create  update        patch         delete
//	customer  public        ADMIN   USER|ADMIN    USER|ADMIN    ADMIN
//	order     USER|ADMIN    ADMIN   USER|ADMIN    USER|ADMIN    ADMIN
//	user      USER|ADMIN    ADMIN   ADMIN         ADMIN         ADMIN
func Default() *Policy {
	return New(map[domain.Resource]map[domain.Action]Requirement{
		domain.ResourceCustomer: {
			domain.ActionList:   public,
			domain.ActionRead:   public,
			domain.ActionCreate: adminOnly,
			domain.ActionUpdate: userOrAdmin,
			domain.ActionPatch:  userOrAdmin,
			domain.ActionDelete: adminOnly,
		},
		domain.ResourceOrder: {
			domain.ActionList:   userOrAdmin,
			domain.ActionRead:   userOrAdmin,
			domain.ActionCreate: adminOnly,
			domain.ActionUpdate: userOrAdmin,
			domain.ActionPatch:  userOrAdmin,
			domain.ActionDelete: adminOnly,
		},
		domain.ResourceUser: {
			domain.ActionList:   userOrAdmin,
			domain.ActionRead:   userOrAdmin,
			domain.ActionCreate: adminOnly,
			domain.ActionUpdate: adminOnly,
			domain.ActionPatch:  adminOnly,
			domain.ActionDelete: adminOnly,
		},
	})
}

// New builds a policy from a nested table.
func New(table map[domain.Resource]map[domain.Action]Requirement) *Policy {
	p := &Policy{rules: make(map[key]Requirement)}
	for res, actions := range table {
		for act, req := range actions {
			p.rules[key{res, act}] = req
		}
	}
	return p
}

// Requirement returns the rule for (resource, action), if one is defined.
func (p *Policy) Requirement(resource domain.Resource, action domain.Action) (Requirement, bool) {
	r, ok := p.rules[key{resource, action}]
	return r, ok
}

// Authorize decides whether principal may perform action on resource.
// Pairs missing from the table are denied.
//
// It returns domain.ErrUnauthenticated when an anonymous caller hits a
// non-public operation and domain.ErrForbidden when the caller's roles do not
// satisfy the rule.
func (p *Policy) Authorize(principal domain.Principal, resource domain.Resource, action domain.Action) error {
	req, ok := p.Requirement(resource, action)
	if !ok {
		return fmt.Errorf("%w: no rule for %s %s", domain.ErrForbidden, action, resource)
	}
	if req.Satisfied(principal) {
		return nil
	}
	if principal.Anonymous() {
		return domain.ErrUnauthenticated
	}
	return domain.ErrForbidden
}
