package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsExposure(t *testing.T) {
	PipelineRuns.Inc()
	PipelineErrors.Inc()
	ParticipantsAnalyzed.Inc()
	EmptyTopics.Inc()
	IncAPIRetry("/responses")
	IncCapabilityCall("embedding")
	IncCommandRun("analyze")
	IncCommandError("analyze")
	ObserveStage("cluster", time.Now().Add(-1500*time.Millisecond))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"ateveryone_pipeline_runs_total",
		"ateveryone_pipeline_errors_total",
		"ateveryone_participants_analyzed_total",
		"ateveryone_empty_topics_total",
		"ateveryone_stage_duration_seconds",
		"ateveryone_capability_calls_total",
		"ateveryone_api_retries_total",
		"ateveryone_command_runs_total",
		"ateveryone_command_errors_total",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status: %d", rec.Code)
	}
}
