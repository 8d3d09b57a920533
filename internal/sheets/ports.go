// Package sheets lays out condominium reports as spreadsheet rows and
// defines the exporters that publish them.
package sheets

import (
	"context"

	"condo/internal/attendance"
	"condo/internal/finance"
)

// Ports for outbound adapters.
type (
	// FinanceExporter replaces the yearly finance sheet with the given summary.
	FinanceExporter interface {
		ExportFinance(ctx context.Context, year int, s finance.Summary) (ref string, err error)
	}

	// PayrollExporter appends one payroll preview row per call.
	PayrollExporter interface {
		AppendPayroll(ctx context.Context, employeeID string, r attendance.MonthReport) (ref string, err error)
	}
)
