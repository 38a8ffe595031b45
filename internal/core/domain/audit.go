package domain

import "time"

// Resource names a kind of entity exposed by the API.
type Resource string

const (
	ResourceCustomer Resource = "customer"
	ResourceOrder    Resource = "order"
	ResourceUser     Resource = "user"
)

// Action names an operation kind on a resource.
type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionPatch  Action = "patch"
	ActionDelete Action = "delete"
)

// AuditEvent records a committed mutation.
type AuditEvent struct {
	ID         string
	Resource   Resource
	Action     Action
	EntityID   int64
	Actor      string
	OccurredAt time.Time
}
