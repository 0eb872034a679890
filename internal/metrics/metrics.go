package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PipelineRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ateveryone_pipeline_runs_total",
		Help: "Total batch analysis runs",
	})
	PipelineErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ateveryone_pipeline_errors_total",
		Help: "Total batch analysis failures",
	})
	ParticipantsAnalyzed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ateveryone_participants_analyzed_total",
		Help: "Participants that produced a profile",
	})
	EmptyTopics = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ateveryone_empty_topics_total",
		Help: "Participants with too little text to cluster",
	})
	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ateveryone_stage_duration_seconds",
		Help:    "Per-stage duration seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	CapabilityCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ateveryone_capability_calls_total",
		Help: "Calls to external capabilities (embedding, llm)",
	}, []string{"capability"})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ateveryone_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ateveryone_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ateveryone_command_errors_total",
		Help: "CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(PipelineRuns, PipelineErrors, ParticipantsAnalyzed, EmptyTopics,
		StageDuration, CapabilityCalls, APIRetries, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := Handler()
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

// ObserveStage records how long a pipeline stage took.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func IncCapabilityCall(name string) { CapabilityCalls.WithLabelValues(name).Inc() }

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
