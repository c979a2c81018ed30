package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion outcomes used as label values.
const (
	OutcomeQueued      = "queued"
	OutcomeUnavailable = "unavailable"
	OutcomeApplied     = "applied"
	OutcomeStale       = "stale"
	OutcomeFailed      = "failed"
)

// Lifecycle holds the Prometheus metrics of the IFC model lifecycle.
type Lifecycle struct {
	conversionRequests *prometheus.CounterVec
	conversionResults  *prometheus.CounterVec
	conversionDuration prometheus.Histogram
	provisionedModels  prometheus.Histogram
	cacheEvents        *prometheus.CounterVec
	cacheSize          *prometheus.GaugeVec
}

// NewLifecycle creates the lifecycle metrics and registers them on reg.
func NewLifecycle(reg prometheus.Registerer) *Lifecycle {
	factory := promauto.With(reg)
	return &Lifecycle{
		conversionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ifc_conversion_requests_total",
				Help: "Conversion requests submitted, by outcome",
			},
			[]string{"outcome"},
		),
		conversionResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ifc_conversion_results_total",
				Help: "Conversion results received, by outcome",
			},
			[]string{"outcome"},
		),
		conversionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ifc_conversion_duration_seconds",
				Help:    "Wall time of a conversion job",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		provisionedModels: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ifc_provisioned_models",
				Help:    "Number of ready models in a provisioning payload",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),
		cacheEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ifc_artifact_cache_events_total",
				Help: "Artifact cache events by layer and event",
			},
			[]string{"layer", "event"},
		),
		cacheSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ifc_artifact_cache_size_bytes",
				Help: "Current artifact cache size in bytes",
			},
			[]string{"layer"},
		),
	}
}

// ConversionRequested counts a submission attempt.
func (m *Lifecycle) ConversionRequested(outcome string) {
	if m == nil {
		return
	}
	m.conversionRequests.WithLabelValues(outcome).Inc()
}

// ConversionResult counts a conversion callback or worker failure.
func (m *Lifecycle) ConversionResult(outcome string) {
	if m == nil {
		return
	}
	m.conversionResults.WithLabelValues(outcome).Inc()
}

// ObserveConversion records the duration of one conversion job.
func (m *Lifecycle) ObserveConversion(d time.Duration) {
	if m == nil {
		return
	}
	m.conversionDuration.Observe(d.Seconds())
}

// ObserveProvisioned records the catalog size of a provisioning payload.
func (m *Lifecycle) ObserveProvisioned(n int) {
	if m == nil {
		return
	}
	m.provisionedModels.Observe(float64(n))
}

// CacheEvent counts a hit, miss, set or eviction on a cache layer.
func (m *Lifecycle) CacheEvent(layer, event string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(layer, event).Inc()
}

// SetCacheSize sets the current size of a cache layer.
func (m *Lifecycle) SetCacheSize(layer string, bytes int64) {
	if m == nil {
		return
	}
	m.cacheSize.WithLabelValues(layer).Set(float64(bytes))
}
