package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "aguas_"

// Ingest outcomes.
const (
	IngestResultSuccess = "success"
	IngestResultError   = "error"
)

var (
	ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "ingest_total",
			Help: "Webhook ingestion attempts by result",
		},
		[]string{"result"},
	)

	ingestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "ingest_errors_total",
			Help: "Webhook ingestion failures by reason",
		},
		[]string{"reason"},
	)

	ingestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "ingest_duration_seconds",
			Help:    "Webhook ingestion handling time",
			Buckets: prometheus.DefBuckets,
		},
	)

	aggregationFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "aggregation_faults_total",
			Help: "Accumulation engine failures collapsed to null",
		},
		[]string{"window"},
	)
)

func init() {
	prometheus.MustRegister(ingestTotal, ingestErrors, ingestDuration, aggregationFaults)
}

// ObserveIngest records one webhook ingestion attempt.
func ObserveIngest(result string, elapsed time.Duration) {
	ingestTotal.WithLabelValues(result).Inc()
	ingestDuration.Observe(elapsed.Seconds())
}

// IncIngestError counts a webhook failure by reason.
func IncIngestError(reason string) {
	ingestErrors.WithLabelValues(reason).Inc()
}

// IncAggregationFault counts a swallowed accumulation failure. The value the
// dashboard sees is null; this counter is the only trace left behind.
func IncAggregationFault(window string) {
	aggregationFaults.WithLabelValues(window).Inc()
}
