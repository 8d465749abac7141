// Package metrics defines and registers all custom Prometheus metrics for the
// Connectify API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default registry via promauto at package
// init, so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "connectify"

// ── Content metrics ───────────────────────────────────────────────────────────

// PostsCreatedTotal counts newly created posts.
var PostsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of posts created.",
	},
)

// LikesToggledTotal counts like toggles.
// Label:
//   - state: "liked" or "unliked", the state after the toggle
var LikesToggledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "likes_toggled_total",
		Help:      "Total number of like toggles, by resulting state.",
	},
	[]string{"state"},
)

// FollowsToggledTotal counts follow toggles.
// Label:
//   - state: "followed" or "unfollowed"
var FollowsToggledTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "follows_toggled_total",
		Help:      "Total number of follow toggles, by resulting state.",
	},
	[]string{"state"},
)

// ── Messaging metrics ─────────────────────────────────────────────────────────

// MessagesSentTotal counts persisted direct messages.
// Label:
//   - transport: "ws" or "rest"
var MessagesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of direct messages stored, by transport.",
	},
	[]string{"transport"},
)

// MessagesDeliveredTotal counts messages that reached a live receiver session.
var MessagesDeliveredTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_delivered_total",
		Help:      "Total number of direct messages delivered to a connected receiver.",
	},
)

// RelaySessions tracks the number of open realtime sessions on this instance.
var RelaySessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "relay_sessions",
		Help:      "Current number of connected realtime sessions.",
	},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsDroppedTotal counts notifications discarded because a worker
// queue was full.
var NotificationsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications dropped on a full dispatcher queue.",
	},
)

// NotificationDeliveryDuration measures how long persisting and pushing one
// notification takes.
var NotificationDeliveryDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_delivery_duration_seconds",
		Help:      "Duration of notification delivery from dequeue to push.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
)

// RecordSend updates the messaging counters for one successful send.
func RecordSend(transport string, delivered, duplicate bool) {
	if duplicate {
		return
	}
	MessagesSentTotal.WithLabelValues(transport).Inc()
	if delivered {
		MessagesDeliveredTotal.Inc()
	}
}
