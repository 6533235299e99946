package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	joinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_joins_total",
			Help: "Total number of join requests handled labeled by outcome",
		},
		[]string{"outcome"},
	)
	settlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_settlements_total",
			Help: "Total number of settlement jobs handled labeled by status",
		},
		[]string{"status"},
	)
	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notification deliveries labeled by status",
		},
		[]string{"status"},
	)
	roomsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rooms_published_total",
			Help: "Total number of rooms promoted to processing by the publisher",
		},
	)
	roomsReconciledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rooms_reconciled_total",
			Help: "Total number of stuck processing rooms re-enqueued by the reconciler",
		},
	)
	roomsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rooms_by_state",
			Help: "Current number of rooms per lifecycle state",
		},
		[]string{"state"},
	)
)

// RecordJoin counts one handled join request.
func RecordJoin(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}

	joinsTotal.WithLabelValues(outcome).Inc()
}

// RecordSettlement counts one handled settlement job.
func RecordSettlement(status string) {
	if status == "" {
		status = "unknown"
	}

	settlementsTotal.WithLabelValues(status).Inc()
}

// RecordNotification counts one notification delivery attempt.
func RecordNotification(status string) {
	if status == "" {
		status = "unknown"
	}

	notificationsTotal.WithLabelValues(status).Inc()
}

// RecordRoomsPublished counts rooms promoted in one publisher tick.
func RecordRoomsPublished(count int) {
	roomsPublishedTotal.Add(float64(count))
}

// RecordRoomsReconciled counts rooms re-enqueued in one reconcile sweep.
func RecordRoomsReconciled(count int) {
	roomsReconciledTotal.Add(float64(count))
}

// SetRoomsByState reports the current room count for one lifecycle state.
func SetRoomsByState(state string, count int) {
	roomsByState.WithLabelValues(state).Set(float64(count))
}
