package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"condo/internal/core"
	"condo/internal/finance"
)

const maxBodyBytes = 1 << 16

// ParseSummaryRequest reads year, month and includePending. Missing values
// mean "unspecified"; malformed ones are rejected rather than defaulted.
func ParseSummaryRequest(q url.Values) (finance.SummaryRequest, error) {
	year, month, err := parsePeriod(q)
	if err != nil {
		return finance.SummaryRequest{}, err
	}
	req := finance.SummaryRequest{Year: year, Month: month}

	if v := strings.TrimSpace(q.Get("includePending")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return finance.SummaryRequest{}, fmt.Errorf("%w: includePending %q", core.ErrInvalidRecord, v)
		}
		req.IncludePending = b
	}
	return req, nil
}

// ReportParams selects an employee's attendance report.
type ReportParams struct {
	EmployeeID string
	Year       int
	Month      int
}

func ParseReportParams(q url.Values) (ReportParams, error) {
	year, month, err := parsePeriod(q)
	if err != nil {
		return ReportParams{}, err
	}
	id := sanitizeInput(q.Get("employee"))
	if id == "" {
		return ReportParams{}, fmt.Errorf("%w: employee", core.ErrEmptyID)
	}
	return ReportParams{EmployeeID: id, Year: year, Month: month}, nil
}

func parsePeriod(q url.Values) (year, month int, err error) {
	if year, err = optionalInt(q, "year"); err != nil {
		return 0, 0, err
	}
	if month, err = optionalInt(q, "month"); err != nil {
		return 0, 0, err
	}
	if err := (core.Period{Year: year, Month: month}).Validate(); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", core.ErrInvalidPeriod, key, v)
	}
	return n, nil
}

// RequestBodyParser reads a body once and serves fields from it, whether it
// was sent as JSON or form-encoded.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a sanitized field value, "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput strips control and markup characters from identifiers.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '<', r == '>', r == '"', r == '\'':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
