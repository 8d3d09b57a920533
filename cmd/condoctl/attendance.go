package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"condo/internal/attendance"
	"condo/internal/core"
	"condo/internal/log"
	"condo/internal/sheets"
	"condo/internal/sheets/xlsx"
)

func newAttendanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Attendance and payroll commands",
	}
	cmd.PersistentFlags().String("employee", "", "Employee identifier (required)")

	report := &cobra.Command{
		Use:   "report",
		Short: "Print worked hours and pay per month",
		Example: `  # Every month of 2025
  condoctl attendance report --employee emp-1 --year 2025

  # Only March
  condoctl attendance report --employee emp-1 --year 2025 --month 3`,
		RunE: a.runAttendanceReport,
	}
	report.Flags().Int("year", 0, "Year to report (default: current year)")
	report.Flags().Int("month", 0, "Month to report, 1-12 (0 for all twelve)")
	report.Flags().String("xlsx", "", "Also append the rows to the payroll sheet of this .xlsx workbook")

	clock := &cobra.Command{
		Use:   "clock",
		Short: "Register the next clock action for today",
		Long: `Opens today's shift on the first call and closes it on the second.
A third call fails because the day is already closed.`,
		RunE: a.runClock,
	}

	cmd.AddCommand(report, clock)
	return cmd
}

func employeeFlag(cmd *cobra.Command) (string, error) {
	id, _ := cmd.Flags().GetString("employee")
	if id == "" {
		return "", errors.New("--employee is required")
	}
	return id, nil
}

func (a *app) runAttendanceReport(cmd *cobra.Command, _ []string) error {
	id, err := employeeFlag(cmd)
	if err != nil {
		return err
	}
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")

	reports, err := a.svc.Attendance.MonthlyReport(cmd.Context(), id, month, year)
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		if err := a.appendPayroll(cmd.Context(), xlsx.New(path), id, reports); err != nil {
			return err
		}
	}
	if wantJSON(cmd) {
		return a.printJSON(reports)
	}
	return a.printReports(reports)
}

func (a *app) printReports(reports []attendance.MonthReport) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Mes\tDías\tHoras\tExtra\tBase\tPago extra\tTotal\tEstado\t")
	for _, r := range reports {
		fmt.Fprintf(w, "%s %d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			sheets.MonthName(r.Month), r.Year, r.DaysWorked,
			r.HoursWorked.StringFixed(2), r.OvertimeHours.StringFixed(2),
			r.BasePay.StringFixed(2), r.OvertimePay.StringFixed(2), r.TotalPay.StringFixed(2),
			r.PaymentStatus)
	}
	return w.Flush()
}

func (a *app) appendPayroll(ctx context.Context, exp sheets.PayrollExporter, employeeID string, reports []attendance.MonthReport) error {
	for _, r := range reports {
		ref, err := exp.AppendPayroll(ctx, employeeID, r)
		if err != nil {
			return fmt.Errorf("append payroll %s %d-%02d: %w", employeeID, r.Year, r.Month, err)
		}
		a.logger.Debug("Payroll row appended", log.FieldOperation, log.OpExport, log.FieldSheetsRef, ref)
	}
	return nil
}

func (a *app) runClock(cmd *cobra.Command, _ []string) error {
	id, err := employeeFlag(cmd)
	if err != nil {
		return err
	}
	if a.cfg.DataBackend == "memory" {
		a.logger.Warn("Memory backend: the clock action is lost when the command exits")
	}

	res, err := a.svc.Attendance.Register(cmd.Context(), id)
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		return a.printJSON(res)
	}

	rec := res.Record
	if res.Transition == core.TransitionOpened {
		fmt.Fprintf(a.out, "%s: shift opened at %s\n", id, rec.Entry)
		return nil
	}
	fmt.Fprintf(a.out, "%s: shift closed at %s (%s h, %s h overtime)\n",
		id, *rec.Exit, rec.HoursWorked.StringFixed(2), rec.OvertimeHours.StringFixed(2))
	return nil
}
