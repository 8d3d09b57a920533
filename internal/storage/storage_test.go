package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"condo/internal/core"
)

const sampleDataset = `{
  "people": [{"id": "ADMIN", "first_name": "Administracion"}, {"id": "R1", "first_name": "Ana", "last_name": "Ruiz"}],
  "employees": [{"id": "E1", "base_salary": "2400", "contract_type": "fijo", "hire_date": "2023-02-01"}],
  "payments": [
    {"id": "P1", "amount": "100", "date": "2025-03-10", "concept": "cuota", "method": "transferencia"},
    {"id": "P2", "amount": "50,5", "date": "2025-03-11T10:00:00-05:00", "concept": "jardineria", "method": "cash"},
    {"id": "P3", "amount": "5", "concept": "sin fecha"}
  ],
  "payment_relationships": [
    {"payment_id": "P1", "payer_id": "R1", "beneficiary_id": "ADMIN"},
    {"payment_id": "P2", "payer_id": "ADMIN", "beneficiary_id": "VENDOR"}
  ],
  "salaries": [{"id": "S1", "amount": "2400", "date": "2025-03-31", "employee_id": "E1", "payer_id": "ADMIN", "method": "transferencia", "receipt_url": "https://example.com/r/1"}],
  "debts": [
    {"id": "D1", "amount": "80", "date": "2025-03-01", "person_id": "R1", "status": "pagado"},
    {"id": "D2", "amount": "20", "date": "2025-03-02", "person_id": "R1", "status": "pendiente", "concept": "multa"}
  ],
  "attendance": [
    {"id": "A1", "employee_id": "E1", "date": "2025-03-03", "entry": "22:00", "exit": "08:00"},
    {"id": "A2", "employee_id": "E1", "date": "2025-03-04", "entry": "08:00"}
  ]
}`

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func loadSample(t *testing.T) Records {
	t.Helper()
	ds, err := LoadDataset(writeDataset(t, sampleDataset))
	if err != nil {
		t.Fatalf("load dataset: %v", err)
	}
	recs, err := ds.Records()
	if err != nil {
		t.Fatalf("convert dataset: %v", err)
	}
	return recs
}

func TestDatasetRecords(t *testing.T) {
	recs := loadSample(t)

	if len(recs.Payments) != 3 || len(recs.Relationships) != 2 || len(recs.Debts) != 2 {
		t.Fatalf("unexpected sizes: %d payments, %d rels, %d debts", len(recs.Payments), len(recs.Relationships), len(recs.Debts))
	}
	p2 := recs.Payments[1]
	if !p2.Amount.Equal(decimal.RequireFromString("50.5")) || p2.Method != core.MethodCash {
		t.Fatalf("unexpected P2 %+v", p2)
	}
	// The calendar date is kept as written, not shifted to UTC.
	if !p2.Date.Equal(core.NewDate(2025, 3, 11)) {
		t.Fatalf("unexpected P2 date %v", p2.Date)
	}
	if !recs.Payments[2].Date.IsZero() {
		t.Fatalf("missing date must stay zero")
	}
	if len(recs.Disbursements) != 1 || recs.Disbursements[0].PayeeID != "E1" || recs.Disbursements[0].ReceiptURL == "" {
		t.Fatalf("unexpected disbursements %+v", recs.Disbursements)
	}

	a1 := recs.Attendance[0]
	if !a1.IsClosed() || !a1.HoursWorked.Equal(decimal.NewFromInt(10)) || !a1.OvertimeHours.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected closed record %+v", a1)
	}
	if recs.Attendance[1].IsClosed() || recs.Attendance[1].Exit != nil {
		t.Fatalf("second record must be open")
	}
}

func TestDatasetRejectsMalformedRows(t *testing.T) {
	cases := map[string]string{
		"negative amount": `{"payments": [{"id": "P", "amount": "-1"}]}`,
		"bad status":      `{"debts": [{"id": "D", "amount": "1", "status": "cancelado"}]}`,
		"bad date":        `{"salaries": [{"id": "S", "amount": "1", "date": "31/03/2025"}]}`,
		"missing id":      `{"payments": [{"amount": "1"}]}`,
		"bad clock":       `{"attendance": [{"id": "A", "employee_id": "E", "date": "2025-01-01", "entry": "25:00"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ds, err := LoadDataset(writeDataset(t, body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if _, err := ds.Records(); err == nil {
				t.Fatalf("expected conversion error")
			}
		})
	}
}

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "condo.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteSeedAndRead(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	recs := loadSample(t)

	if err := repo.Seed(ctx, recs); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice must not duplicate relationship rows.
	if err := repo.Seed(ctx, recs); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	payments, err := repo.ListPayments(ctx)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 3 || payments[0].ID != "P1" || !payments[2].Date.IsZero() {
		t.Fatalf("unexpected payments %+v", payments)
	}

	rels, err := repo.ListPaymentRelationships(ctx)
	if err != nil || len(rels) != 2 {
		t.Fatalf("expected 2 relationships, got %d (%v)", len(rels), err)
	}

	debts, err := repo.ListDebts(ctx)
	if err != nil || len(debts) != 2 || debts[1].Status != core.DebtPending {
		t.Fatalf("unexpected debts %+v (%v)", debts, err)
	}

	salaries, err := repo.ListSalaries(ctx)
	if err != nil || len(salaries) != 1 || salaries[0].EmployeeID != "E1" {
		t.Fatalf("unexpected salaries %+v (%v)", salaries, err)
	}

	people, err := repo.ListPeople(ctx)
	if err != nil || len(people) != 2 {
		t.Fatalf("unexpected people %+v (%v)", people, err)
	}

	emp, err := repo.GetEmployee(ctx, "E1")
	if err != nil || !emp.BaseSalary.Equal(decimal.NewFromInt(2400)) || emp.HireDate.IsZero() {
		t.Fatalf("unexpected employee %+v (%v)", emp, err)
	}
	if _, err := repo.GetEmployee(ctx, "nobody"); !errors.Is(err, core.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	march := core.MonthRange(2025, 3, nil)
	ds, err := repo.ListDisbursements(ctx, "E1", march)
	if err != nil || len(ds) != 1 || ds[0].Method != core.MethodTransfer || ds[0].PayerID != "ADMIN" {
		t.Fatalf("unexpected disbursements %+v (%v)", ds, err)
	}
	if ds, _ := repo.ListDisbursements(ctx, "E1", core.MonthRange(2025, 4, nil)); len(ds) != 0 {
		t.Fatalf("expected no April disbursements, got %d", len(ds))
	}

	att, err := repo.ListAttendance(ctx, "E1", march)
	if err != nil || len(att) != 2 {
		t.Fatalf("unexpected attendance %+v (%v)", att, err)
	}
	if att[0].Exit == nil || att[0].Exit.String() != "08:00" || !att[0].HoursWorked.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("closed record not round-tripped: %+v", att[0])
	}
}

func TestSQLiteMalformedRowFailsFetch(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	if _, err := repo.db.ExecContext(ctx, `INSERT INTO payments (id, amount) VALUES ('bad', 'abc')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.ListPayments(ctx); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSQLiteShiftCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	date := core.NewDate(2025, 5, 2)

	if rec, err := repo.GetAttendance(ctx, "E1", date); err != nil || rec != nil {
		t.Fatalf("expected no record, got %+v (%v)", rec, err)
	}

	open := core.AttendanceRecord{ID: "A1", EmployeeID: "E1", Date: date, Entry: 8 * 60, Status: core.AttendanceOpen, Version: 1}
	if err := repo.OpenShift(ctx, open); err != nil {
		t.Fatalf("open: %v", err)
	}
	dup := open
	dup.ID = "A2"
	if err := repo.OpenShift(ctx, dup); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate open, got %v", err)
	}

	exit := core.ClockTime(18 * 60)
	closed := open
	closed.Exit = &exit
	closed.HoursWorked = decimal.NewFromInt(10)
	closed.OvertimeHours = decimal.NewFromInt(2)
	closed.Status = core.AttendanceClosed
	closed.Version = 2

	if err := repo.CloseShift(ctx, closed, 7); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict on stale version, got %v", err)
	}
	if err := repo.CloseShift(ctx, closed, 1); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := repo.CloseShift(ctx, closed, 1); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict on second close, got %v", err)
	}

	got, err := repo.GetAttendance(ctx, "E1", date)
	if err != nil || got == nil {
		t.Fatalf("get: %+v (%v)", got, err)
	}
	if !got.IsClosed() || got.Version != 2 || *got.Exit != exit || !got.OvertimeHours.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("unexpected stored record %+v", got)
	}
}

func TestMigrationsUpAndBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")

	st, err := Schema(path)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !st.Empty {
		t.Fatalf("fresh database must have no schema, got %+v", st)
	}

	if err := RunMigrations(path); err != nil {
		t.Fatalf("up: %v", err)
	}
	// A second run is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("up again: %v", err)
	}
	st, err = Schema(path)
	if err != nil || st.Empty || st.Dirty || st.Version != 1 {
		t.Fatalf("expected clean version 1, got %+v (%v)", st, err)
	}

	if err := RollbackMigrations(path); err != nil {
		t.Fatalf("down: %v", err)
	}
	if st, err = Schema(path); err != nil || !st.Empty {
		t.Fatalf("expected empty schema after rollback, got %+v (%v)", st, err)
	}
}
