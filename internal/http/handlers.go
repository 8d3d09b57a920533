package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"condo/internal/core"
	"condo/internal/log"
)

func (s *Server) handleFinanceSummary(w http.ResponseWriter, r *http.Request) {
	req, err := ParseSummaryRequest(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	res := s.finance.GetFinancialSummary(r.Context(), req)
	if !res.Success && statusFor(res.Error) >= http.StatusInternalServerError {
		s.access.LogError(r.Context(), "Financial summary failed", errors.New(res.Error),
			log.ComponentHTTP, log.OpSummary, log.NewFields().WithPeriod(req.Year, req.Month))
	}
	writeResult(w, res)
}

func (s *Server) handleAttendanceReport(w http.ResponseWriter, r *http.Request) {
	p, err := ParseReportParams(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	res := s.attendance.GetAttendanceReport(r.Context(), p.EmployeeID, p.Month, p.Year)
	if !res.Success && statusFor(res.Error) >= http.StatusInternalServerError {
		s.access.LogError(r.Context(), "Attendance report failed", errors.New(res.Error),
			log.ComponentHTTP, log.OpReport, log.NewFields().WithEmployee(p.EmployeeID).WithPeriod(p.Year, p.Month))
	}
	writeResult(w, res)
}

func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	body := NewRequestBodyParser(r)
	if err := body.Parse(); err != nil {
		writeBadRequest(w, core.ErrInvalidRecord)
		return
	}
	employeeID := body.Get("employee_id")
	if employeeID == "" {
		writeBadRequest(w, core.ErrEmptyID)
		return
	}

	res := s.attendance.Clock(r.Context(), employeeID)
	if !res.Success && statusFor(res.Error) >= http.StatusInternalServerError {
		s.access.LogError(r.Context(), "Clock action failed", errors.New(res.Error),
			log.ComponentHTTP, log.OpClock, log.NewFields().WithEmployee(employeeID))
	}
	if res.Success && res.Data.Transition == core.TransitionOpened {
		writeJSON(w, http.StatusCreated, res)
		return
	}
	writeResult(w, res)
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the store is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.rateLimiter.ActiveClients()},
	}

	switch {
	case s.store == nil:
		checks["store"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.store.Ping(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			checks["store"] = "failed"
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
