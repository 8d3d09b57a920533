// Package xlsx writes the same report sheets as the Google exporter into a
// local Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"condo/internal/attendance"
	"condo/internal/finance"
	ports "condo/internal/sheets"
)

const defaultSheet = "Sheet1"

// Workbook exports into the file at Path, creating it on first use. Every call
// reopens and saves the file.
type Workbook struct {
	Path string

	mu  sync.Mutex
	now func() time.Time
}

var (
	_ ports.FinanceExporter = (*Workbook)(nil)
	_ ports.PayrollExporter = (*Workbook)(nil)
)

func New(path string) *Workbook {
	return &Workbook{Path: path, now: time.Now}
}

// ExportFinance replaces the "<year> Reporte" sheet.
func (w *Workbook) ExportFinance(ctx context.Context, year int, s finance.Summary) (string, error) {
	if len(s.Breakdown.Monthly) == 0 {
		return "", errors.New("summary has no monthly breakdown; request a whole year")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d Reporte", year)
	rows := ports.FinanceRows(year, s)

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	idx, err := f.NewSheet(name)
	if err != nil {
		return "", fmt.Errorf("create sheet %s: %w", name, err)
	}
	if err := clearSheet(f, name); err != nil {
		return "", err
	}
	for i, row := range rows {
		if err := setRow(f, name, i+1, row); err != nil {
			return "", err
		}
	}
	f.SetColWidth(name, "A", "A", 22)
	f.SetColWidth(name, "B", "D", 14)
	f.SetActiveSheet(idx)

	if err := w.save(f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!A1:D%d", name, len(rows)), nil
}

// AppendPayroll adds one row to the "<year> Nomina" sheet.
func (w *Workbook) AppendPayroll(ctx context.Context, employeeID string, r attendance.MonthReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d Nomina", r.Year)

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(name); idx < 0 {
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	existing, err := f.GetRows(name)
	if err != nil {
		return "", fmt.Errorf("read sheet %s: %w", name, err)
	}
	n := len(existing) + 1
	if err := setRow(f, name, n, ports.PayrollRow(employeeID, r, w.now())); err != nil {
		return "", err
	}

	if err := w.save(f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s!A%d:J%d", name, n, n), nil
}

// Rows reads a sheet back as strings.
func (w *Workbook) Rows(name string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetRows(name)
}

func (w *Workbook) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.Path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return f, nil
}

// save drops the placeholder sheet of a new workbook once a real one exists.
func (w *Workbook) save(f *excelize.File) error {
	if len(f.GetSheetList()) > 1 {
		if idx, _ := f.GetSheetIndex(defaultSheet); idx >= 0 {
			if err := f.DeleteSheet(defaultSheet); err != nil {
				return fmt.Errorf("drop %s: %w", defaultSheet, err)
			}
		}
	}
	if err := f.SaveAs(w.Path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// clearSheet removes every row; NewSheet returns an existing sheet as is.
func clearSheet(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	for i := len(rows); i >= 1; i-- {
		if err := f.RemoveRow(sheet, i); err != nil {
			return fmt.Errorf("clear sheet %s: %w", sheet, err)
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
