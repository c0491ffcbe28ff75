package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rosterpilot_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rosterpilot_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	parseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rosterpilot_translator_parse_duration_seconds",
		Help:    "Duration of translator parse calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rosterpilot_commands_total",
		Help: "Count of dispatched commands by intent and outcome",
	}, []string{"intent", "status"})

	proposalsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rosterpilot_proposals_issued_total",
		Help: "Count of write proposals issued",
	})

	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rosterpilot_commits_total",
		Help: "Count of proposal commit attempts by result",
	}, []string{"result"})

	fteWarningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rosterpilot_fte_warnings_total",
		Help: "Count of over-commitment warnings emitted",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveParse records one translator call with a result label.
func ObserveParse(result string, duration time.Duration) {
	parseDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// ObserveCommand counts one dispatched command.
func ObserveCommand(intent, status string) {
	commandsTotal.WithLabelValues(intent, status).Inc()
}

// ObserveProposalIssued counts one issued write proposal.
func ObserveProposalIssued() {
	proposalsIssued.Inc()
}

// ObserveCommit counts one commit attempt with its result.
func ObserveCommit(result string) {
	commitsTotal.WithLabelValues(result).Inc()
}

// AddFTEWarnings counts emitted over-commitment warnings.
func AddFTEWarnings(n int) {
	if n > 0 {
		fteWarningsTotal.Add(float64(n))
	}
}
