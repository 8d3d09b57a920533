// Package http serves the JSON API the condominium UI consumes.
package http

import (
	"context"
	"net/http"
	"time"

	"condo/internal/attendance"
	"condo/internal/core"
	"condo/internal/finance"
	"condo/internal/log"
	"condo/internal/metrics"
)

// Boundary services. Their methods never fail with an error value; failures
// arrive inside the envelope.
type (
	FinanceReporter interface {
		GetFinancialSummary(ctx context.Context, req finance.SummaryRequest) core.Result[finance.Summary]
	}

	AttendanceReporter interface {
		GetAttendanceReport(ctx context.Context, employeeID string, month, year int) core.Result[[]attendance.MonthReport]
		Clock(ctx context.Context, employeeID string) core.Result[attendance.ClockResult]
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Finance    FinanceReporter
	Attendance AttendanceReporter
	Store      Pinger
	Metrics    *metrics.Metrics
	Logger     *log.Logger
	// POST requests allowed per client and minute; 0 means 60.
	ClockRateLimit int
}

type Server struct {
	http.Server

	finance     FinanceReporter
	attendance  AttendanceReporter
	store       Pinger
	metrics     *metrics.Metrics
	logger      *log.Logger
	access      *log.StructuredLogger
	rateLimiter *rateLimiter
	started     time.Time
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		finance:     deps.Finance,
		attendance:  deps.Attendance,
		store:       deps.Store,
		metrics:     deps.Metrics,
		logger:      logger,
		access:      log.NewStructuredLogger(logger),
		rateLimiter: newRateLimiter(deps.ClockRateLimit),
		started:     time.Now(),
	}
	go s.rateLimiter.startCleanup()

	mux.HandleFunc("GET /api/finance/summary", s.wrap("/api/finance/summary", s.handleFinanceSummary))
	mux.HandleFunc("GET /api/attendance/report", s.wrap("/api/attendance/report", s.handleAttendanceReport))
	mux.HandleFunc("POST /api/attendance/clock", s.wrap("/api/attendance/clock", s.handleClock))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s
}

// Shutdown stops background work and then the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	return s.Server.Shutdown(ctx)
}
