package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Total number of notifications persisted",
		},
		[]string{"type"},
	)

	NotificationDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Total number of notification mail deliveries",
		},
		[]string{"status"}, // status: sent, failed, skipped
	)

	SweepNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_notifications_total",
			Help: "Notifications emitted or suppressed by scheduled sweeps",
		},
		[]string{"sweep", "outcome"}, // outcome: notified, duplicate, failed
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of scheduled sweeps in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"sweep"},
	)
)

// RecordNotificationCreated increments the created counter for a type.
func RecordNotificationCreated(notificationType string) {
	NotificationsCreated.WithLabelValues(notificationType).Inc()
}

// RecordDelivery increments the delivery counter for a status.
func RecordDelivery(status string) {
	NotificationDeliveries.WithLabelValues(status).Inc()
}

// RecordSweepOutcome increments the per-task outcome counter of a sweep.
func RecordSweepOutcome(sweep, outcome string) {
	SweepNotifications.WithLabelValues(sweep, outcome).Inc()
}

// RecordSweepDuration observes the duration of a sweep.
func RecordSweepDuration(sweep string, d time.Duration) {
	SweepDuration.WithLabelValues(sweep).Observe(d.Seconds())
}
