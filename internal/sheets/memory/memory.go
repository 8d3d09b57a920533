// Package memory keeps exported sheets in process, for tests and dry runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"condo/internal/attendance"
	"condo/internal/finance"
	ports "condo/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
	now    func() time.Time
}

var (
	_ ports.FinanceExporter = (*Store)(nil)
	_ ports.PayrollExporter = (*Store)(nil)
)

func New() *Store {
	return &Store{sheets: make(map[string][][]any), now: time.Now}
}

// ExportFinance replaces the year's report sheet.
func (s *Store) ExportFinance(_ context.Context, year int, sum finance.Summary) (string, error) {
	if len(sum.Breakdown.Monthly) == 0 {
		return "", errors.New("summary has no monthly breakdown; request a whole year")
	}
	name := fmt.Sprintf("%d Reporte", year)
	rows := ports.FinanceRows(year, sum)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[name] = rows
	return fmt.Sprintf("%s!A1:D%d", name, len(rows)), nil
}

// AppendPayroll appends one row and returns its synthetic reference.
func (s *Store) AppendPayroll(_ context.Context, employeeID string, r attendance.MonthReport) (string, error) {
	name := fmt.Sprintf("%d Nomina", r.Year)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets[name] = append(s.sheets[name], ports.PayrollRow(employeeID, r, s.now()))
	n := len(s.sheets[name])
	return fmt.Sprintf("%s!A%d:J%d", name, n, n), nil
}

// Rows returns a copy of what was written to the named sheet.
func (s *Store) Rows(name string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sheets[name])
}
