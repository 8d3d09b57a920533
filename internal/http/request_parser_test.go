package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"condo/internal/core"
)

func TestParseSummaryRequest(t *testing.T) {
	tests := []struct {
		query   string
		year    int
		month   int
		pending bool
		err     error
	}{
		{"", 0, 0, false, nil},
		{"year=2025", 2025, 0, false, nil},
		{"year=2025&month=3&includePending=true", 2025, 3, true, nil},
		{"month=0", 0, 0, false, nil},
		{"month=13", 0, 0, false, core.ErrInvalidPeriod},
		{"year=twenty", 0, 0, false, core.ErrInvalidPeriod},
		{"includePending=yes", 0, 0, false, core.ErrInvalidRecord},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			req, err := ParseSummaryRequest(q)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil || req.Year != tt.year || req.Month != tt.month || req.IncludePending != tt.pending {
				t.Fatalf("got %+v (%v)", req, err)
			}
		})
	}
}

func TestParseReportParams(t *testing.T) {
	q, _ := url.ParseQuery("employee=%3CE1%3E&month=2")
	p, err := ParseReportParams(q)
	if err != nil || p.EmployeeID != "E1" || p.Month != 2 || p.Year != 0 {
		t.Fatalf("got %+v (%v)", p, err)
	}

	q, _ = url.ParseQuery("month=2")
	if _, err := ParseReportParams(q); !errors.Is(err, core.ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json", `{"employee_id":" E1 "}`, "E1"},
		{"json number", `{"employee_id": 42}`, "42"},
		{"form", "employee_id=E2", "E2"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(tt.body)))
			if err := p.Parse(); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := p.Get("employee_id"); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(`{"employee_id":`)))
	if err := p.Parse(); err == nil {
		t.Fatal("expected JSON error")
	}
	if err := p.Parse(); err == nil {
		t.Fatal("repeated Parse must return the same error")
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[error]int{
		core.ErrInvalidPeriod:      400,
		core.ErrEmployeeNotFound:   404,
		core.ErrShiftAlreadyClosed: 409,
		core.ErrConflict:           409,
		core.ErrBaseData:           503,
		core.ErrInternal:           500,
	}
	for err, code := range tests {
		if got := statusFor(err.Error()); got != code {
			t.Errorf("statusFor(%v) = %d, want %d", err, got, code)
		}
	}
}
