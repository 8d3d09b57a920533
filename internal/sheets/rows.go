package sheets

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"condo/internal/attendance"
	"condo/internal/finance"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish month label, or the number when out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprint(m)
	}
	return monthNames[m-1]
}

// FinanceRows lays out a yearly summary: header, twelve months, totals,
// then the expense categories.
func FinanceRows(year int, s finance.Summary) [][]any {
	rows := [][]any{{"Mes", "Ingresos", "Egresos", "Balance"}}
	for _, m := range s.Breakdown.Monthly {
		rows = append(rows, []any{MonthName(m.Month), cell(m.Income), cell(m.Expense), cell(m.Balance)})
	}
	rows = append(rows,
		[]any{fmt.Sprintf("Total %d", year), cell(s.Income), cell(s.Expenses), cell(s.Balance)},
		[]any{"Deudas pendientes", cell(s.PendingDebts), "", ""},
		[]any{"Balance proyectado", "", cell(s.ProjectedExpenses), cell(s.ProjectedBalance)},
		[]any{},
		[]any{"Categoría", "Monto"},
	)
	for _, g := range s.Breakdown.ExpenseByCategory {
		rows = append(rows, []any{g.Key, cell(g.Amount)})
	}
	return rows
}

// PayrollRow is one payroll preview line.
func PayrollRow(employeeID string, r attendance.MonthReport, at time.Time) []any {
	return []any{
		at.UTC().Format(time.RFC3339),
		employeeID,
		fmt.Sprintf("%s %d", MonthName(r.Month), r.Year),
		r.DaysWorked,
		cell(r.HoursWorked),
		cell(r.OvertimeHours),
		cell(r.BasePay),
		cell(r.OvertimePay),
		cell(r.TotalPay),
		r.PaymentStatus,
	}
}

// Amounts go out as fixed two-decimal strings; USER_ENTERED parses them as numbers.
func cell(d decimal.Decimal) string {
	return d.StringFixed(2)
}
