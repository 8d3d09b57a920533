package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"condo/internal/attendance"
	"condo/internal/core"
	"condo/internal/finance"
	"condo/internal/metrics"
	"condo/internal/storage"
	"condo/internal/storage/memory"
)

func testRecords() storage.Records {
	return storage.Records{
		People: []core.Person{
			{ID: "ADMIN", FirstName: "Administracion"},
			{ID: "R1", FirstName: "Ana", LastName: "Ruiz"},
		},
		Employees: []core.Employee{{ID: "E1", BaseSalary: decimal.NewFromInt(2400)}},
		Payments: []core.Payment{
			{ID: "P1", Amount: decimal.NewFromInt(100), Date: core.NewDate(2025, 3, 10), Concept: "cuota", Method: core.MethodTransfer},
		},
		Relationships: []core.PaymentRelationship{{PaymentID: "P1", PayerID: "R1", BeneficiaryID: "ADMIN"}},
		Salaries: []core.Salary{
			{ID: "S1", Amount: decimal.NewFromInt(500), Date: core.NewDate(2025, 3, 31), EmployeeID: "E1"},
		},
	}
}

type testEnv struct {
	srv     *Server
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, mutate func(*Deps)) testEnv {
	t.Helper()
	store := memory.New(testRecords())
	m := metrics.New()
	ticks := []time.Time{
		time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 17, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time {
		next := ticks[0]
		if len(ticks) > 1 {
			ticks = ticks[1:]
		}
		return next
	}

	deps := Deps{
		Finance: finance.NewService(store, "ADMIN", finance.WithPeople(store), finance.WithMetrics(m)),
		Attendance: attendance.NewService(store,
			attendance.WithPeople(store),
			attendance.WithClock(clock),
			attendance.WithMetrics(m)),
		Store:   store,
		Metrics: m,
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return testEnv{srv: srv, metrics: m}
}

func (e testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestFinanceSummaryEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(t, http.MethodGet, "/api/finance/summary?year=2025&month=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
	res := decode[finance.Summary](t, rr)
	if !res.Success || !res.Data.Income.Equal(decimal.NewFromInt(100)) || !res.Data.Balance.Equal(decimal.NewFromInt(-400)) {
		t.Fatalf("unexpected summary %+v", res)
	}
}

func TestFinanceSummaryRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, q := range []string{"month=13", "year=2025&month=abc", "includePending=maybe", "year=-1"} {
		t.Run(q, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/api/finance/summary?"+q, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
			}
			if res := decode[any](t, rr); res.Success || res.Error == "" {
				t.Fatalf("expected failure envelope, got %+v", res)
			}
		})
	}
}

type failingSource struct{ memory.Store }

func (*failingSource) ListDebts(context.Context) ([]core.Debt, error) {
	return nil, errors.New("database is locked")
}

func TestFinanceSummaryBaseDataFailure(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) {
		d.Finance = finance.NewService(&failingSource{}, "ADMIN")
	})

	rr := env.do(t, http.MethodGet, "/api/finance/summary?year=2025", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
	}
	res := decode[any](t, rr)
	if res.Error != core.ErrBaseData.Error() {
		t.Fatalf("store detail must not leak, got %q", res.Error)
	}
}

func TestClockEndpointLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	steps := []struct {
		body string
		code int
	}{
		{`{"employee_id":"E1"}`, http.StatusCreated},
		{`employee_id=E1`, http.StatusOK},
		{`{"employee_id":"E1"}`, http.StatusConflict},
	}
	for i, step := range steps {
		rr := env.do(t, http.MethodPost, "/api/attendance/clock", step.body)
		if rr.Code != step.code {
			t.Fatalf("step %d: status=%d body=%s", i, rr.Code, rr.Body)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/attendance/report?employee=E1&year=2025&month=3", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("report status=%d body=%s", rr.Code, rr.Body)
	}
	res := decode[[]attendance.MonthReport](t, rr)
	if len(res.Data) != 1 || res.Data[0].DaysWorked != 1 || !res.Data[0].HoursWorked.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("unexpected report %+v", res.Data)
	}
}

func TestClockEndpointErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"missing employee", `{}`, http.StatusBadRequest},
		{"malformed json", `{"employee_id":`, http.StatusBadRequest},
		{"unknown employee", `{"employee_id":"nobody"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := env.do(t, http.MethodPost, "/api/attendance/clock", tt.body); rr.Code != tt.code {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body)
			}
		})
	}

	if rr := env.do(t, http.MethodGet, "/api/attendance/clock", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on clock should be 405, got %d", rr.Code)
	}
}

func TestAttendanceReportRequiresEmployee(t *testing.T) {
	env := newTestEnv(t, nil)

	if rr := env.do(t, http.MethodGet, "/api/attendance/report?year=2025", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rr.Code)
	}
	rr := env.do(t, http.MethodGet, "/api/attendance/report?employee=E1&year=2025", "")
	if res := decode[[]attendance.MonthReport](t, rr); len(res.Data) != 12 {
		t.Fatalf("whole-year report should have 12 entries, got %d", len(res.Data))
	}
}

func TestClockRateLimit(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.ClockRateLimit = 2 })

	for i := 0; i < 2; i++ {
		env.do(t, http.MethodPost, "/api/attendance/clock", `{"employee_id":"E1"}`)
	}
	rr := env.do(t, http.MethodPost, "/api/attendance/clock", `{"employee_id":"E1"}`)
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After, got %d", rr.Code)
	}

	// Reads are not limited.
	if rr := env.do(t, http.MethodGet, "/api/finance/summary", ""); rr.Code != http.StatusOK {
		t.Fatalf("GET should not be rate limited, got %d", rr.Code)
	}
}

type panickingAttendance struct{}

func (panickingAttendance) GetAttendanceReport(context.Context, string, int, int) core.Result[[]attendance.MonthReport] {
	panic("boom")
}

func (panickingAttendance) Clock(context.Context, string) core.Result[attendance.ClockResult] {
	panic("boom")
}

func TestHandlerPanicBecomesInternalError(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Attendance = panickingAttendance{} })

	rr := env.do(t, http.MethodGet, "/api/attendance/report?employee=E1", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if res := decode[any](t, rr); res.Error != core.ErrInternal.Error() {
		t.Fatalf("unexpected error %q", res.Error)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, "/api/finance/summary", "")

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "X-Request-ID"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing header %s", h)
		}
	}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		if rr := env.do(t, http.MethodGet, path, ""); rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestEnv(t, func(d *Deps) { d.Store = fakePinger{err: errors.New("disk full")} })
	if rr := down.do(t, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing store: %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodGet, "/api/finance/summary?year=2025", "")

	rr := env.do(t, http.MethodGet, "/metrics", "")
	body := rr.Body.String()
	for _, want := range []string{
		`condo_http_requests_total{code="200",route="/api/finance/summary"} 1`,
		`condo_report_duration_seconds_count{report="finance"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %s", want)
		}
	}
}
