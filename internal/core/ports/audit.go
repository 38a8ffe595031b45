package ports

import (
	"context"

	"github.com/yadev/crm-system/internal/core/domain"
)

// AuditRecorder accepts committed mutations for the audit trail. Record must
// not block the caller on persistence.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.AuditEvent)
}

// AuditRepository stores audit events.
type AuditRepository interface {
	InsertAudit(ctx context.Context, event *domain.AuditEvent) error
}

// IdempotencyRecord is what a store holds for a key: the fingerprint of the
// request that claimed it and, once that request finished, the id it created.
type IdempotencyRecord struct {
	Fingerprint string
	ID          int64
}

// Pending reports whether the claiming request has not finished yet.
func (r IdempotencyRecord) Pending() bool { return r.ID == 0 }

// IdempotencyStore tracks client-supplied Idempotency-Keys per scope
// (resource and caller). A key is reserved before the create runs, so two
// requests racing on the same key never both reach the service.
type IdempotencyStore interface {
	// Reserve claims (scope, key) for a request with the given fingerprint.
	// When the key is already held, reserved is false and rec describes the
	// holder.
	Reserve(ctx context.Context, scope, key, fingerprint string) (rec IdempotencyRecord, reserved bool, err error)
	// Complete stores the id the reserved request created.
	Complete(ctx context.Context, scope, key, fingerprint string, id int64) error
	// Release drops a reservation whose request failed.
	Release(ctx context.Context, scope, key string) error
}
