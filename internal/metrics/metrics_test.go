package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	return string(body)
}

func TestObserveReport(t *testing.T) {
	m := New()
	m.ObserveReport(ReportFinance, time.Now(), nil)
	m.ObserveReport(ReportFinance, time.Now(), errors.New("boom"))

	out := scrape(t, m)
	if !strings.Contains(out, `condo_report_failures_total{report="finance"} 1`) {
		t.Fatalf("expected one finance failure in output:\n%s", out)
	}
	if !strings.Contains(out, `condo_report_duration_seconds_count{report="finance"} 2`) {
		t.Fatalf("expected two finance observations in output:\n%s", out)
	}
}

func TestIncClock(t *testing.T) {
	m := New()
	m.IncClock("opened")
	m.IncClock("opened")
	m.IncClock("closed")

	out := scrape(t, m)
	if !strings.Contains(out, `condo_clock_transitions_total{transition="opened"} 2`) {
		t.Fatalf("expected opened=2 in output:\n%s", out)
	}
	if !strings.Contains(out, `condo_clock_transitions_total{transition="closed"} 1`) {
		t.Fatalf("expected closed=1 in output:\n%s", out)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveReport(ReportAttendance, time.Now(), errors.New("x"))
	m.IncClock("closed")
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/finance/summary", 200)
	m.ObserveHTTP("/api/finance/summary", 503)
	m.IncRejected("rate_limit")

	out := scrape(t, m)
	for _, want := range []string{
		`condo_http_requests_total{code="200",route="/api/finance/summary"} 1`,
		`condo_http_requests_total{code="503",route="/api/finance/summary"} 1`,
		`condo_http_rejected_total{reason="rate_limit"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in output:\n%s", want, out)
		}
	}
}
