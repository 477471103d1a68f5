// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_connections_active",
			Help: "Number of live WebSocket connections",
		},
	)

	NotificationsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_notifications_delivered_total",
			Help: "Notifications written to live connections",
		},
		[]string{"type", "path"}, // path: targeted, broadcast, flush
	)

	NotificationsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_notifications_queued_total",
			Help: "Notifications buffered for offline users",
		},
		[]string{"type"},
	)

	NotificationsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_notifications_evicted_total",
			Help: "Queued notifications dropped by FIFO eviction",
		},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_delivery_failures_total",
			Help: "Per-connection write failures during fan-out",
		},
		[]string{"path"},
	)

	FanoutDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "realtime_fanout_duration_seconds",
			Help: "Duration of a send or broadcast fan-out",
		},
		[]string{"path"},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "realtime_sweep_duration_seconds",
			Help: "Duration of supervisor sweeps",
		},
		[]string{"sweep"}, // heartbeat, queue_flush
	)

	ConnectionsReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_connections_reclaimed_total",
			Help: "Dead connections removed by the heartbeat sweep",
		},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_messages_rejected_total",
			Help: "Inbound client messages rejected",
		},
		[]string{"reason"}, // malformed, unknown_type, rate_limited
	)
)
