package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sfm_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sfm_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "endpoint"},
	)

	// KPI metrics
	MeasurementsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_kpi_measurements_recorded_total",
			Help: "Total number of KPI measurements recorded",
		},
		[]string{"status", "trend"},
	)

	// Sweep metrics
	SweepRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_sweep_runs_total",
			Help: "Total number of alert sweeps",
		},
		[]string{"result"}, // result: success, failed
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sfm_sweep_duration_seconds",
			Help:    "Time taken by one alert sweep",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	SweepPhaseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_sweep_phase_errors_total",
			Help: "Sweep phases that failed to read their data",
		},
		[]string{"phase"},
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_alerts_created_total",
			Help: "Total number of alerts created by sweeps",
		},
		[]string{"type"},
	)

	AlertsDuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_alerts_duplicates_skipped_total",
			Help: "Candidate alerts suppressed by an existing unread alert",
		},
	)

	AlertsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_alerts_purged_total",
			Help: "Read alerts deleted by the retention sweep",
		},
	)

	// Worker metrics
	WorkerQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sfm_worker_queue_size",
			Help: "Current size of the alert event queue",
		},
	)

	WorkerQueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sfm_worker_queue_capacity",
			Help: "Capacity of the alert event queue",
		},
	)

	WorkerProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_worker_processed_total",
			Help: "Total number of alert events published by workers",
		},
	)

	WorkerFailedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_worker_failed_total",
			Help: "Total number of alert events failed in workers",
		},
	)

	WorkerDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_worker_dropped_total",
			Help: "Alert events dropped because the queue was full",
		},
	)

	WorkerBatchPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sfm_worker_batch_publish_duration_seconds",
			Help:    "Time taken to publish a batch to Kafka",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// Kafka metrics
	KafkaPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_kafka_publish_total",
			Help: "Total number of messages published to Kafka",
		},
		[]string{"status"}, // status: success, failed
	)

	KafkaPublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sfm_kafka_publish_duration_seconds",
			Help:    "Time taken to publish to Kafka",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	KafkaPublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_kafka_publish_retries_total",
			Help: "Total number of Kafka publish retries",
		},
	)

	KafkaBytesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_kafka_bytes_written_total",
			Help: "Total bytes written to Kafka",
		},
	)

	// Realtime feed
	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sfm_realtime_clients",
			Help: "Connected websocket clients",
		},
	)

	RealtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sfm_realtime_dropped_total",
			Help: "Messages skipped for slow websocket clients",
		},
	)

	// Reports
	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_reports_generated_total",
			Help: "PDF reports generated",
		},
		[]string{"status"},
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sfm_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
