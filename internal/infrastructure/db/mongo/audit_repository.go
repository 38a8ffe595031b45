package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yadev/crm-system/internal/core/domain"
)

// AuditRepository persists audit events to the audit_events collection.
type AuditRepository struct {
	col *mongo.Collection
}

func (s *Store) Audit() *AuditRepository {
	return &AuditRepository{col: s.db.Collection(collectionAudit)}
}

// InsertAudit stores ev keyed by its id. Replays of the same id are ignored.
func (r *AuditRepository) InsertAudit(ctx context.Context, ev *domain.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"_id":         ev.ID,
		"resource":    string(ev.Resource),
		"action":      string(ev.Action),
		"entity_id":   ev.EntityID,
		"actor":       ev.Actor,
		"occurred_at": ev.OccurredAt.UTC(),
	}

	_, err := r.col.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}
