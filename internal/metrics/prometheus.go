// Package metrics exports advisor metrics to Prometheus
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/SpherenexLabs/npk/internal/models"
)

var (
	// RequestsTotal counts HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npk_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"endpoint", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "npk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"endpoint", "method"},
	)

	// ReadingsIngested counts readings per source (mqtt, http)
	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npk_readings_ingested_total",
			Help: "Total number of readings ingested",
		},
		[]string{"source"},
	)

	ReadingsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "npk_readings_dropped_total",
			Help: "Readings dropped because a channel was full or the payload was malformed",
		},
	)

	// DataQualityWarnings counts defaulted attributes
	DataQualityWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npk_data_quality_warnings_total",
			Help: "Recognised attributes that were missing or invalid and defaulted",
		},
		[]string{"field", "reason"},
	)

	Classifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npk_classifications_total",
			Help: "Classifications by suggested label",
		},
		[]string{"label"},
	)

	StatusAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npk_status_alerts_total",
			Help: "Readings outside their safe band, by field",
		},
		[]string{"field"},
	)

	// IngestLatency covers history append, classification and status
	IngestLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "npk_ingest_latency_seconds",
			Help:    "Per-reading ingest latency in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "npk_sink_errors_total",
			Help: "Failed result deliveries by sink",
		},
		[]string{"sink"},
	)

	ActiveDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "npk_active_devices",
			Help: "Number of device streams with a coordinator",
		},
	)

	HistoryLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "npk_history_length",
			Help: "Current history window length per device",
		},
		[]string{"device_id"},
	)
)

// RecordIngest updates the per-result metrics
func RecordIngest(source string, result *models.IngestResult) {
	ReadingsIngested.WithLabelValues(source).Inc()
	Classifications.WithLabelValues(result.Classification.LabelOr("none")).Inc()
	for _, w := range result.Warnings {
		DataQualityWarnings.WithLabelValues(w.Field, w.Reason).Inc()
	}
	for _, a := range result.Alerts {
		StatusAlerts.WithLabelValues(a.Field).Inc()
	}
	HistoryLength.WithLabelValues(result.DeviceID).Set(float64(len(result.History)))
}
