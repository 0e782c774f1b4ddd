package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsCollected counts events accepted onto the track queue.
	EventsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_collected_total",
			Help: "Total number of events accepted onto the track queue",
		},
		[]string{"type"},
	)

	// EventsDropped counts events discarded because the track queue was full.
	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_dropped_total",
			Help: "Total number of events dropped due to a full track queue",
		},
	)

	// EventsRejected counts track calls that failed wrapper validation.
	EventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_rejected_total",
			Help: "Total number of track calls rejected by input validation",
		},
	)

	// AppendFailures counts event store appends that errored.
	AppendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_append_failures_total",
			Help: "Total number of failed event store appends",
		},
	)

	// CounterProjectionFailures counts failed denormalized counter increments.
	CounterProjectionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_counter_projection_failures_total",
			Help: "Total number of failed business counter increments",
		},
	)

	// SubMetricFailures counts sub-metric computations that degraded to their
	// zero value.
	SubMetricFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_submetric_failures_total",
			Help: "Total number of sub-metric computations that degraded to zero values",
		},
		[]string{"submetric"},
	)

	// SnapshotDuration observes full metrics snapshot computation time.
	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_snapshot_duration_seconds",
			Help:    "Metrics snapshot computation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RealtimeActiveSessions mirrors the latest polled real-time snapshot.
	RealtimeActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_realtime_active_sessions",
			Help: "Active sessions in the trailing hour, from the latest poll",
		},
	)

	RealtimePageViews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_realtime_page_views",
			Help: "Page views in the trailing hour, from the latest poll",
		},
	)

	RealtimeSearches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analytics_realtime_searches",
			Help: "Searches in the trailing hour, from the latest poll",
		},
	)
)
