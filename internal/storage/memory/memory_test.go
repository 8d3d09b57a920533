package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"condo/internal/core"
	"condo/internal/storage"
)

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	body := `{"employees":[{"id":"E1","base_salary":"2400"}],"payments":[{"id":"P1","amount":"10","date":"2025-01-02"}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	payments, _ := s.ListPayments(context.Background())
	if len(payments) != 1 || !payments[0].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected payments %+v", payments)
	}

	empty, err := NewFromFile("")
	if err != nil {
		t.Fatalf("empty path: %v", err)
	}
	if p, _ := empty.ListPayments(context.Background()); len(p) != 0 {
		t.Fatalf("expected empty store")
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := New(storage.Records{Payments: []core.Payment{{ID: "P1"}}})
	got, _ := s.ListPayments(context.Background())
	got[0].ID = "mutated"
	again, _ := s.ListPayments(context.Background())
	if again[0].ID != "P1" {
		t.Fatalf("store leaked its backing slice")
	}
}

func TestShiftCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := New(storage.Records{})
	date := core.NewDate(2025, 6, 1)

	open := core.AttendanceRecord{ID: "A1", EmployeeID: "E1", Date: date, Entry: 480, Status: core.AttendanceOpen, Version: 1}
	if err := s.OpenShift(ctx, open); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.OpenShift(ctx, open); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	closed := open
	closed.Status = core.AttendanceClosed
	closed.Version = 2
	if err := s.CloseShift(ctx, closed, 2); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale version, got %v", err)
	}
	if err := s.CloseShift(ctx, closed, 1); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.CloseShift(ctx, closed, 1); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict on closed row, got %v", err)
	}

	rec, err := s.GetAttendance(ctx, "E1", date)
	if err != nil || rec == nil || !rec.IsClosed() {
		t.Fatalf("unexpected record %+v (%v)", rec, err)
	}
}

func TestGetEmployeeNotFound(t *testing.T) {
	s := New(storage.Records{})
	if _, err := s.GetEmployee(context.Background(), "E9"); !errors.Is(err, core.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}
