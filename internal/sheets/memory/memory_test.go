package memory

import (
	"context"
	"testing"

	"condo/internal/attendance"
	"condo/internal/finance"
)

func TestStore_ExportFinanceReplaces(t *testing.T) {
	s := New()
	sum := finance.Summary{Breakdown: finance.Breakdown{Monthly: make([]finance.MonthlyEntry, 12)}}

	for i := 0; i < 2; i++ {
		ref, err := s.ExportFinance(context.Background(), 2025, sum)
		if err != nil {
			t.Fatalf("export: %v", err)
		}
		if ref != "2025 Reporte!A1:D18" {
			t.Fatalf("unexpected ref %q", ref)
		}
	}
	if n := len(s.Rows("2025 Reporte")); n != 18 {
		t.Fatalf("export must replace, got %d rows", n)
	}

	if _, err := s.ExportFinance(context.Background(), 2025, finance.Summary{}); err == nil {
		t.Fatal("expected error without monthly breakdown")
	}
}

func TestStore_AppendPayroll(t *testing.T) {
	s := New()
	r := attendance.MonthReport{Month: 1, Year: 2025}
	s.AppendPayroll(context.Background(), "e1", r)
	ref, err := s.AppendPayroll(context.Background(), "e2", r)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "2025 Nomina!A2:J2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if rows := s.Rows("2025 Nomina"); len(rows) != 2 || rows[1][1] != "e2" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
