package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the bot.
type Metrics struct {
	// Archive ingestion metrics.
	ArchiveLoads       *prometheus.CounterVec // labels: outcome={success,read_error,schema_error}
	ArchiveRowsLoaded  prometheus.Counter
	ArchiveRowsDropped prometheus.Counter

	// Match engine metrics.
	MatchOutcomes *prometheus.CounterVec // labels: policy, outcome={match,none}

	// Open-Meteo client metrics.
	APIRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	APIDuration *prometheus.HistogramVec // labels: endpoint

	// Posting metrics.
	TweetsPosted prometheus.Counter
	RunDuration  prometheus.Histogram
	BotRunning   prometheus.Gauge
}

// NewMetrics creates and registers all bot metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ArchiveLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "joseon_bot",
			Name:      "archive_loads_total",
			Help:      "Archive table loads by outcome.",
		}, []string{"outcome"}),
		ArchiveRowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "joseon_bot",
			Name:      "archive_rows_loaded_total",
			Help:      "Rows surviving date resolution across all loads.",
		}),
		ArchiveRowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "joseon_bot",
			Name:      "archive_rows_dropped_total",
			Help:      "Rows dropped for unparseable dates across all loads.",
		}),
		MatchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "joseon_bot",
			Name:      "match_outcomes_total",
			Help:      "Match engine lookups by policy and outcome.",
		}, []string{"policy", "outcome"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "joseon_bot",
			Name:      "api_requests_total",
			Help:      "Open-Meteo API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "joseon_bot",
			Name:      "api_request_duration_seconds",
			Help:      "Open-Meteo API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 40},
		}, []string{"endpoint"}),
		TweetsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "joseon_bot",
			Name:      "tweets_posted_total",
			Help:      "Tweets actually posted (dry runs excluded).",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "joseon_bot",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete compose-and-post cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		BotRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "joseon_bot",
			Name:      "running",
			Help:      "1 while a posting cycle is in flight.",
		}),
	}

	prometheus.MustRegister(
		m.ArchiveLoads,
		m.ArchiveRowsLoaded,
		m.ArchiveRowsDropped,
		m.MatchOutcomes,
		m.APIRequests,
		m.APIDuration,
		m.TweetsPosted,
		m.RunDuration,
		m.BotRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ArchiveLoads:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "joseon_bot", Name: "archive_loads_total"}, []string{"outcome"}),
		ArchiveRowsLoaded:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "joseon_bot", Name: "archive_rows_loaded_total"}),
		ArchiveRowsDropped: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "joseon_bot", Name: "archive_rows_dropped_total"}),
		MatchOutcomes:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "joseon_bot", Name: "match_outcomes_total"}, []string{"policy", "outcome"}),
		APIRequests:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "joseon_bot", Name: "api_requests_total"}, []string{"endpoint", "outcome"}),
		APIDuration:        prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "joseon_bot", Name: "api_request_duration_seconds"}, []string{"endpoint"}),
		TweetsPosted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "joseon_bot", Name: "tweets_posted_total"}),
		RunDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "joseon_bot", Name: "run_duration_seconds"}),
		BotRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "joseon_bot", Name: "running"}),
	}
}
