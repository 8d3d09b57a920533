package http

import (
	"encoding/json"
	"net/http"

	"condo/internal/core"
)

// statusByError maps the public error messages carried by core.Result to
// HTTP status codes.
var statusByError = map[string]int{
	core.ErrInvalidPeriod.Error():      http.StatusBadRequest,
	core.ErrInvalidClockTime.Error():   http.StatusBadRequest,
	core.ErrInvalidRecord.Error():      http.StatusBadRequest,
	core.ErrInvalidAmount.Error():      http.StatusBadRequest,
	core.ErrEmptyID.Error():            http.StatusBadRequest,
	core.ErrEmployeeNotFound.Error():   http.StatusNotFound,
	core.ErrShiftAlreadyClosed.Error(): http.StatusConflict,
	core.ErrConflict.Error():           http.StatusConflict,
	core.ErrBaseData.Error():           http.StatusServiceUnavailable,
}

func statusFor(msg string) int {
	if code, ok := statusByError[msg]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// writeResult sends an envelope with the status its error implies.
func writeResult[T any](w http.ResponseWriter, res core.Result[T]) {
	status := http.StatusOK
	if !res.Success {
		status = statusFor(res.Error)
	}
	writeJSON(w, status, res)
}

// writeBadRequest rejects input before it reaches a service. err keeps its
// detail so callers can see which parameter was wrong.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, core.Fail[any](err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
