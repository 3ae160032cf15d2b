// Package metrics defines and registers all custom Prometheus metrics for the
// estimate API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "estimator"

// ── Account metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "inactive", "pending", "rejected"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts new accounts by role.
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registered accounts, by role.",
	},
	[]string{"role"},
)

// ApprovalsTotal counts admin decisions on pending accounts.
// Label:
//   - decision: "approved" or "rejected"
var ApprovalsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approvals_total",
		Help:      "Total number of approval decisions, by decision.",
	},
	[]string{"decision"},
)

// PrincipalCacheTotal counts principal lookups by cache outcome ("hit", "miss", "error").
var PrincipalCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "principal_cache_total",
		Help:      "Total number of principal cache lookups, by result.",
	},
	[]string{"result"},
)

// ── Estimate metrics ──────────────────────────────────────────────────────────

// EstimatesCreatedTotal counts newly created estimates.
// Label:
//   - party: "directory" or "registered"
var EstimatesCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimates_created_total",
		Help:      "Total number of estimates created, by bill-to party kind.",
	},
	[]string{"party"},
)

// EstimateTransitionsTotal counts applied status transitions.
var EstimateTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimate_transitions_total",
		Help:      "Total number of estimate status transitions, by from and to status.",
	},
	[]string{"from", "to"},
)

// EstimateNumberTotal counts how estimate numbers were assigned.
// Label:
//   - outcome: "sequence", "retry" (duplicate key, drew again) or "fallback" (clock based)
var EstimateNumberTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "estimate_number_total",
		Help:      "Total number of estimate number assignments, by outcome.",
	},
	[]string{"outcome"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsTotal counts sent-estimate notifications handed to the broker.
// Label:
//   - result: "published", "failed" or "dropped" (dispatcher not running or full)
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of estimate notifications, by result.",
	},
	[]string{"result"},
)

// NotificationsQueueDepth tracks the number of notifications waiting in each worker channel.
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationPublishDuration measures broker publish latency.
var NotificationPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_publish_duration_seconds",
		Help:      "Duration of a single notification publish to the broker.",
		Buckets:   prometheus.DefBuckets,
	},
)
