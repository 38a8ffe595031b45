package handler

import (
	"github.com/yadev/crm-system/internal/core/domain"
)

// --- Request → domain ---

func (r customerRequest) toDomain(id int64) *domain.Customer {
	return &domain.Customer{
		ID:        id,
		LastName:  r.LastName,
		FirstName: r.FirstName,
		Company:   r.Company,
		Mail:      r.Mail,
		Phone:     r.Phone,
		Mobile:    r.Mobile,
		Notes:     r.Notes,
		Active:    r.Active,
	}
}

func (r orderRequest) toDomain(id int64) *domain.Order {
	return &domain.Order{
		ID:           id,
		Label:        r.Label,
		Address:      r.Address,
		NumberOfDays: r.NumberOfDays,
		Tax:          r.Tax,
		Status:       r.Status,
		Type:         r.Type,
		Notes:        r.Notes,
		CustomerID:   r.CustomerID,
	}
}

func (r createUserRequest) toDomain() *domain.User {
	roles := domain.NewRoleSet()
	for _, name := range r.Roles {
		roles[domain.Role(name)] = struct{}{}
	}
	return &domain.User{Username: r.Username, Mail: r.Mail, Roles: roles}
}

// --- Domain → response ---

func toCustomerResponse(c *domain.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		LastName:  c.LastName,
		FirstName: c.FirstName,
		Company:   c.Company,
		Mail:      c.Mail,
		Phone:     c.Phone,
		Mobile:    c.Mobile,
		Notes:     c.Notes,
		Active:    c.Active,
	}
}

func toCustomerResponses(in []*domain.Customer) []customerResponse {
	out := make([]customerResponse, len(in))
	for i, c := range in {
		out[i] = toCustomerResponse(c)
	}
	return out
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID:           o.ID,
		Label:        o.Label,
		Address:      o.Address,
		NumberOfDays: o.NumberOfDays,
		Tax:          o.Tax,
		Status:       o.Status,
		Type:         o.Type,
		Notes:        o.Notes,
		CustomerID:   o.CustomerID,
	}
}

func toOrderResponses(in []*domain.Order) []orderResponse {
	out := make([]orderResponse, len(in))
	for i, o := range in {
		out[i] = toOrderResponse(o)
	}
	return out
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Mail:     u.Mail,
		Roles:    u.Roles.Strings(),
	}
}

func toUserResponses(in []*domain.User) []userResponse {
	out := make([]userResponse, len(in))
	for i, u := range in {
		out[i] = toUserResponse(u)
	}
	return out
}
