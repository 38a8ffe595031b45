// Package metrics defines and registers all custom Prometheus metrics for the
// CRM API. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Access control ────────────────────────────────────────────────────────────

// AuthorizationDecisionsTotal counts policy decisions.
// Labels:
//   - resource: "customer", "order" or "user"
//   - action: "list", "read", "create", "update", "patch" or "delete"
//   - outcome: "allowed", "unauthenticated" or "forbidden"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization policy decisions.",
	},
	[]string{"resource", "action", "outcome"},
)

// AuthenticationFailuresTotal counts rejected credentials.
// Label:
//   - scheme: "basic", "bearer" or "login"
var AuthenticationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentication_failures_total",
		Help:      "Total number of requests whose credentials were rejected.",
	},
	[]string{"scheme"},
)

// ── Requests ──────────────────────────────────────────────────────────────────

// InternalErrorsTotal counts requests that ended in a 500 because the store
// or another dependency failed.
var InternalErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "internal_errors_total",
		Help:      "Total number of requests that failed with an internal error.",
	},
)

// IdempotencyLookupsTotal counts Idempotency-Key reservations on create requests.
// Label:
//   - result: "reserved", "replayed", "in_progress", "mismatch" or "error"
var IdempotencyLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotency_lookups_total",
		Help:      "Total number of idempotency key lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Audit trail ───────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by outcome.
// Labels:
//   - resource: entity type of the mutation
//   - result: "stored", "failed" or "dropped" (queue full or closed)
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events handled by the dispatcher.",
	},
	[]string{"resource", "result"},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditPersistDuration measures how long persisting one audit event takes.
var AuditPersistDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_persist_duration_seconds",
		Help:      "Duration of audit event persistence from dequeue to store write.",
		Buckets:   prometheus.DefBuckets,
	},
)
