package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	lookupRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotquery_lookup_requests_total",
			Help: "Total number of lookup requests by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	engineQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lotquery_engine_queries_total",
			Help: "Total number of statements submitted to the query engine by terminal outcome.",
		},
		[]string{"outcome"},
	)
	enginePollAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lotquery_engine_poll_attempts",
			Help:    "Status poll attempts consumed per query execution.",
			Buckets: []float64{1, 2, 3, 5, 8, 10, 15, 20, 30},
		},
	)
	engineQueryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lotquery_engine_query_duration_ms",
			Help:    "Wall-clock time from submit to fetched results in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 15000},
		},
	)
	translationOffTopicTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lotquery_translation_offtopic_total",
			Help: "Total number of questions the translator flagged as off-topic.",
		},
	)
	modelCallDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lotquery_model_call_duration_ms",
			Help:    "Model gateway call latency in milliseconds by stage.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 20000},
		},
		[]string{"stage"},
	)
	sweptArtifactsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lotquery_swept_artifacts_total",
			Help: "Total number of result artifacts deleted by the retention sweeper.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		lookupRequestsTotal,
		engineQueriesTotal,
		enginePollAttempts,
		engineQueryDurationMs,
		translationOffTopicTotal,
		modelCallDurationMs,
		sweptArtifactsTotal,
	)
}

func ObserveLookup(mode, outcome string) {
	lookupRequestsTotal.WithLabelValues(mode, outcome).Inc()
}

func ObserveEngineQuery(outcome string, attempts int, elapsed time.Duration) {
	engineQueriesTotal.WithLabelValues(outcome).Inc()
	enginePollAttempts.Observe(float64(attempts))
	engineQueryDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementTranslationOffTopic() {
	translationOffTopicTotal.Inc()
}

func ObserveModelCall(stage string, elapsed time.Duration) {
	modelCallDurationMs.WithLabelValues(stage).Observe(float64(elapsed.Milliseconds()))
}

func AddSweptArtifacts(count int) {
	if count > 0 {
		sweptArtifactsTotal.Add(float64(count))
	}
}
