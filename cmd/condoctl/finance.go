package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"condo/internal/cli"
	"condo/internal/finance"
	"condo/internal/log"
	"condo/internal/sheets"
	gsheet "condo/internal/sheets/google"
	sheetmem "condo/internal/sheets/memory"
	"condo/internal/sheets/xlsx"
)

func newFinanceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "finance",
		Short: "Print the financial summary for a period",
		Example: `  # Whole year, with the monthly breakdown
  condoctl finance --year 2025

  # One month, counting pending debts as projected expenses
  condoctl finance --year 2025 --month 3 --include-pending`,
		RunE: a.runFinance,
	}
	cmd.Flags().Int("year", time.Now().Year(), "Year to report (0 for all years)")
	cmd.Flags().Int("month", 0, "Month to report, 1-12 (0 for the whole year)")
	cmd.Flags().Bool("include-pending", false, "Subtract pending debts from the projected balance")

	cmd.AddCommand(newFinanceExportCmd(a))
	return cmd
}

func (a *app) runFinance(cmd *cobra.Command, _ []string) error {
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	pending, _ := cmd.Flags().GetBool("include-pending")

	sum, err := a.svc.Finance.Summary(cmd.Context(), finance.SummaryRequest{
		Year:           year,
		Month:          month,
		IncludePending: pending,
	})
	if err != nil {
		return err
	}
	if wantJSON(cmd) {
		return a.printJSON(sum)
	}
	return a.printSummary(sum)
}

func (a *app) printSummary(s finance.Summary) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "Ingresos\t%s\t\n", s.Income.StringFixed(2))
	fmt.Fprintf(w, "Egresos\t%s\t\n", s.Expenses.StringFixed(2))
	fmt.Fprintf(w, "Balance\t%s\t\n", s.Balance.StringFixed(2))
	fmt.Fprintf(w, "Pérdida\t%s\t\n", s.Loss.StringFixed(2))
	fmt.Fprintf(w, "Deudas pendientes\t%s\t\n", s.PendingDebts.StringFixed(2))
	fmt.Fprintf(w, "Egresos proyectados\t%s\t\n", s.ProjectedExpenses.StringFixed(2))
	fmt.Fprintf(w, "Balance proyectado\t%s\t\n", s.ProjectedBalance.StringFixed(2))

	if len(s.Breakdown.Monthly) > 0 {
		fmt.Fprintln(w, "\t\t")
		fmt.Fprintln(w, "Mes\tIngresos\tEgresos\tBalance\t")
		for _, m := range s.Breakdown.Monthly {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", sheets.MonthName(m.Month),
				m.Income.StringFixed(2), m.Expense.StringFixed(2), m.Balance.StringFixed(2))
		}
	}

	if len(s.Breakdown.ExpenseByCategory) > 0 {
		fmt.Fprintln(w, "\t\t")
		fmt.Fprintln(w, "Categoría\tMonto\t")
		for _, g := range s.Breakdown.ExpenseByCategory {
			fmt.Fprintf(w, "%s\t%s\t\n", g.Key, g.Amount.StringFixed(2))
		}
	}
	return w.Flush()
}

func newFinanceExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the yearly finance report to Google Sheets",
		Long: `Writes the yearly summary into the "<year> Reporte" sheet of
GOOGLE_SPREADSHEET_ID, replacing its content. With --xlsx the same sheet is
written into a local Excel workbook instead. With --dry-run the rows are
printed and nothing is written.`,
		RunE: a.runFinanceExport,
	}
	cmd.Flags().Int("year", time.Now().Year(), "Year to export")
	cmd.Flags().Bool("dry-run", false, "Print the rows instead of writing the spreadsheet")
	cmd.Flags().String("xlsx", "", "Write to this local .xlsx workbook instead of Google Sheets")
	return cmd
}

func (a *app) runFinanceExport(cmd *cobra.Command, _ []string) error {
	year, _ := cmd.Flags().GetInt("year")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	if year < 1 {
		return errors.New("export needs a concrete --year")
	}

	sum, err := a.svc.Finance.Summary(cmd.Context(), finance.SummaryRequest{Year: year})
	if err != nil {
		return err
	}

	if dryRun {
		mem := sheetmem.New()
		ref, err := mem.ExportFinance(cmd.Context(), year, sum)
		if err != nil {
			return err
		}
		a.logger.Info("Dry run export", log.FieldOperation, log.OpExport, log.FieldSheetsRef, ref)
		return a.printRows(mem.Rows(fmt.Sprintf("%d Reporte", year)))
	}

	var exporter sheets.FinanceExporter
	if xlsxPath != "" {
		exporter = xlsx.New(xlsxPath)
	} else {
		client, err := a.sheetsClient(cmd)
		if err != nil {
			return err
		}
		exporter = client
	}
	ref, err := exporter.ExportFinance(cmd.Context(), year, sum)
	if err != nil {
		return fmt.Errorf("export finance: %w", err)
	}
	a.logger.Info("Finance report exported", log.FieldOperation, log.OpExport, log.FieldSheetsRef, ref)
	fmt.Fprintf(a.out, "Exported %s\n", ref)
	return nil
}

func (a *app) sheetsClient(cmd *cobra.Command) (*gsheet.Client, error) {
	client, err := cli.NewSheetsExporter(cmd.Context(), a.cfg)
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}
	if client == nil {
		return nil, errors.New("GOOGLE_SPREADSHEET_ID environment variable is required")
	}
	return client, nil
}

func (a *app) printRows(rows [][]any) error {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, row := range rows {
		for _, c := range row {
			fmt.Fprintf(w, "%v\t", c)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
