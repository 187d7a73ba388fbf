package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveSolve(t *testing.T) {
	m := New()

	m.ObserveSolve(OutcomeSuccess, 20*time.Millisecond)
	m.ObserveSolve(OutcomeSuccess, 10*time.Millisecond)
	m.ObserveSolve(OutcomeBadInput, 0)

	if got := testutil.ToFloat64(m.solves.WithLabelValues(OutcomeSuccess)); got != 2 {
		t.Errorf("success count = %v, expected 2", got)
	}
	if got := testutil.ToFloat64(m.solves.WithLabelValues(OutcomeBadInput)); got != 1 {
		t.Errorf("bad_input count = %v, expected 1", got)
	}
	if got := testutil.CollectAndCount(m.solveDuration); got != 1 {
		t.Errorf("duration series = %d, expected 1", got)
	}
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("/api/v1/investments/", http.MethodGet, http.StatusOK, time.Millisecond)
	m.ObserveRequest("/api/v1/investments/", http.MethodGet, http.StatusOK, time.Millisecond)
	m.ObserveRequest("/api/v1/upload_file/", http.MethodPost, http.StatusBadRequest, time.Millisecond)

	expected := `
# HELP invest_optimizer_http_requests_total HTTP requests by route, method and status code.
# TYPE invest_optimizer_http_requests_total counter
invest_optimizer_http_requests_total{code="200",method="GET",route="/api/v1/investments/"} 2
invest_optimizer_http_requests_total{code="400",method="POST",route="/api/v1/upload_file/"} 1
`
	if err := testutil.CollectAndCompare(m.requests, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveSolve(OutcomeError, time.Second)
	m.ObserveRequest("/", http.MethodGet, http.StatusOK, time.Second)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveSolve(OutcomeSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `invest_optimizer_solves_total{outcome="success"} 1`) {
		t.Errorf("solve counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("runtime collector missing from exposition")
	}
}
