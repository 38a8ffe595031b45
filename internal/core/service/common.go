package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

// expected reports whether err is one of the outcomes callers are meant to
// handle (missing entity, bad input, conflict). Anything else is a store
// failure.
func expected(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrForbidden)
}

// fail returns expected errors untouched and logs and wraps everything else.
func fail(log zerolog.Logger, op string, err error) error {
	if expected(err) {
		return err
	}
	log.Error().Err(err).Str("op", op).Msg("store operation failed")
	return fmt.Errorf("%s: %w", op, err)
}

type nopAuditRecorder struct{}

func (nopAuditRecorder) Record(context.Context, domain.AuditEvent) {}

func auditOrNop(a ports.AuditRecorder) ports.AuditRecorder {
	if a == nil {
		return nopAuditRecorder{}
	}
	return a
}

func record(ctx context.Context, a ports.AuditRecorder, res domain.Resource, act domain.Action, id int64) {
	a.Record(ctx, domain.AuditEvent{
		ID:         uuid.NewString(),
		Resource:   res,
		Action:     act,
		EntityID:   id,
		Actor:      domain.PrincipalFrom(ctx).Username,
		OccurredAt: time.Now().UTC(),
	})
}
