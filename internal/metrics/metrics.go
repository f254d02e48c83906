package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Persistence Metrics
var (
	PersistenceOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceOps,
			Help: HelpTextPersistenceOps,
		},
		[]string{LabelTable, LabelOperation, LabelResult},
	)

	PersistenceOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNamePersistenceOpDuration,
			Help:    HelpTextPersistenceOpDuration,
			Buckets: PersistenceLatencyBuckets,
		},
		[]string{LabelOperation},
	)

	PersistenceRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceRetries,
			Help: HelpTextPersistenceRetries,
		},
		[]string{LabelTable},
	)

	PersistenceDeadLetters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePersistenceDeadLetters,
			Help: HelpTextPersistenceDeadLetters,
		},
		[]string{LabelTable},
	)

	PersistenceQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNamePersistenceQueueDepth,
			Help: HelpTextPersistenceQueueDepth,
		},
	)
)

// Domain Metrics
var (
	ClaimsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameClaimsActive,
			Help: HelpTextClaimsActive,
		},
	)

	ClaimDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameClaimDecisions,
			Help: HelpTextClaimDecisions,
		},
		[]string{LabelResult},
	)

	ReputationAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameReputationAdjustments,
			Help: HelpTextReputationAdjustments,
		},
		[]string{LabelDirection},
	)

	ModeChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameModeChanges,
			Help: HelpTextModeChanges,
		},
		[]string{LabelMode, LabelOrigin},
	)

	NoobRecordsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameNoobRecordsSwept,
			Help: HelpTextNoobRecordsSwept,
		},
	)

	RegionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameRegionsActive,
			Help: HelpTextRegionsActive,
		},
	)
)
