package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yadev/crm-system/internal/api/metrics"
	"github.com/yadev/crm-system/internal/core/domain"
	"github.com/yadev/crm-system/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q is not a positive integer", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	return c.Validate(req)
}

func created(c echo.Context, resource string, id int64, body any) error {
	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/v1/%s/%d", resource, id))
	return c.JSON(http.StatusCreated, body)
}

// replayGuard implements Idempotency-Key handling for create endpoints. A nil
// store disables it. Store failures are logged and the request proceeds as if
// no key had been sent.
type replayGuard struct {
	store    ports.IdempotencyStore
	resource domain.Resource
	log      zerolog.Logger
}

// claim is the outcome of reserve. An inactive claim (no key, no store, store
// down) needs no settling.
type claim struct {
	guard       replayGuard
	scope       string
	key         string
	fingerprint string
	// replayID is set when an earlier request with the same key and payload
	// already created the entity.
	replayID int64
}

func (g replayGuard) scope(ctx context.Context) string {
	return string(g.resource) + ":" + domain.PrincipalFrom(ctx).Username
}

// reserve claims the request's Idempotency-Key before the create runs. A key
// held by an unfinished request yields ErrRequestInProgress; a key reused with
// another payload yields ErrIdempotencyKeyReused.
func (g replayGuard) reserve(c echo.Context, req any) (claim, error) {
	key := c.Request().Header.Get(headerIdempotencyKey)
	if g.store == nil || key == "" {
		return claim{}, nil
	}
	fp, err := fingerprint(req)
	if err != nil {
		return claim{}, err
	}

	ctx := c.Request().Context()
	scope := g.scope(ctx)
	rec, reserved, err := g.store.Reserve(ctx, scope, key, fp)
	switch {
	case err != nil:
		metrics.IdempotencyLookupsTotal.WithLabelValues("error").Inc()
		g.log.Warn().Err(err).Str("resource", string(g.resource)).Msg("idempotency reserve failed")
		return claim{}, nil
	case reserved:
		metrics.IdempotencyLookupsTotal.WithLabelValues("reserved").Inc()
		return claim{guard: g, scope: scope, key: key, fingerprint: fp}, nil
	case rec.Fingerprint != fp:
		metrics.IdempotencyLookupsTotal.WithLabelValues("mismatch").Inc()
		return claim{}, domain.ErrIdempotencyKeyReused
	case rec.Pending():
		metrics.IdempotencyLookupsTotal.WithLabelValues("in_progress").Inc()
		return claim{}, domain.ErrRequestInProgress
	}
	metrics.IdempotencyLookupsTotal.WithLabelValues("replayed").Inc()
	return claim{replayID: rec.ID}, nil
}

// settle records the created id, or frees the key when the create failed so
// the client can retry.
func (cl claim) settle(ctx context.Context, id int64, createErr error) {
	if cl.key == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	log := cl.guard.log.With().Str("resource", string(cl.guard.resource)).Logger()
	if createErr != nil {
		if err := cl.guard.store.Release(ctx, cl.scope, cl.key); err != nil {
			log.Warn().Err(err).Msg("idempotency release failed")
		}
		return
	}
	if err := cl.guard.store.Complete(ctx, cl.scope, cl.key, cl.fingerprint, id); err != nil {
		log.Warn().Err(err).Int64("id", id).Msg("idempotency complete failed")
	}
}

// fingerprint hashes the decoded request so a reused key can be told apart
// from a retry.
func fingerprint(req any) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("fingerprint request: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
