// Package metrics defines and registers all custom Prometheus metrics for the
// reporting console. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "console"

// ── Directory metrics ─────────────────────────────────────────────────────────

// DirectoryRequestsTotal counts calls to the user directory backend.
// Labels:
//   - operation: client method (e.g. "list_users", "update_user")
//   - outcome: "ok", "unauthorized", "force_logout", "client_error", "server_error" or "network"
var DirectoryRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "directory_requests_total",
		Help:      "Total number of user directory calls, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// DirectoryRequestDuration measures directory round trips, retries included.
var DirectoryRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "directory_request_duration_seconds",
		Help:      "Duration of user directory calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Guard metrics ─────────────────────────────────────────────────────────────

// GuardDenialsTotal counts requests turned away by the route guards.
// Labels:
//   - tag: route tag of the denied route
//   - reason: "no_session" or "role"
var GuardDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_denials_total",
		Help:      "Total number of requests denied by the route guards.",
	},
	[]string{"tag", "reason"},
)

// ── Administration metrics ────────────────────────────────────────────────────

// UserMutationsTotal counts user administration mutations.
// Labels:
//   - action: "create", "update" or "delete"
//   - outcome: "ok", "invalid" or "error"
var UserMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_mutations_total",
		Help:      "Total number of user administration mutations, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// AuditQueueDepth tracks entries waiting in each audit worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// AuditDroppedTotal counts entries discarded because their worker was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of audit entries dropped on a full queue.",
	},
)
