package sqlstore

import (
	"context"

	"github.com/yadev/crm-system/internal/core/domain"
)

type AuditRepository struct {
	s *Store
}

func (s *Store) Audit() *AuditRepository {
	return &AuditRepository{s: s}
}

// InsertAudit stores ev. Replays of an already stored event id are ignored.
func (r *AuditRepository) InsertAudit(ctx context.Context, ev *domain.AuditEvent) error {
	_, err := r.s.exec(ctx,
		`INSERT INTO audit_events (id, resource, action, entity_id, actor, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		ev.ID, string(ev.Resource), string(ev.Action), ev.EntityID, ev.Actor, ev.OccurredAt.UTC(),
	)
	return err
}

// CountAudit returns how many events were stored for (resource, entityID).
func (r *AuditRepository) CountAudit(ctx context.Context, resource domain.Resource, entityID int64) (int64, error) {
	var n int64
	err := r.s.queryRow(ctx,
		"SELECT COUNT(*) FROM audit_events WHERE resource = ? AND entity_id = ?",
		string(resource), entityID,
	).Scan(&n)
	return n, err
}
