package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"condo/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository reads the shared condominium tables and owns attendance writes.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers; sqlite allows only one anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanDate(ns sql.NullString) (time.Time, error) {
	if !ns.Valid {
		return time.Time{}, nil
	}
	return ParseDate(ns.String)
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatDate(t), Valid: true}
}

// ListPayments implements finance.Source
func (r *SQLiteRepository) ListPayments(ctx context.Context) ([]core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, date, concept, method, description FROM payments ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var (
			p              core.Payment
			amount, method string
			date           sql.NullString
		)
		if err := rows.Scan(&p.ID, &amount, &date, &p.Concept, &method, &p.Description); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = core.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		if p.Date, err = scanDate(date); err != nil {
			return nil, fmt.Errorf("payment %s: %w", p.ID, err)
		}
		p.Method = core.ParseMethod(method)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPaymentRelationships implements finance.Source
func (r *SQLiteRepository) ListPaymentRelationships(ctx context.Context) ([]core.PaymentRelationship, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payment_id, payer_id, beneficiary_id FROM payment_relationships ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query payment relationships: %w", err)
	}
	defer rows.Close()

	var out []core.PaymentRelationship
	for rows.Next() {
		var rel core.PaymentRelationship
		if err := rows.Scan(&rel.PaymentID, &rel.PayerID, &rel.BeneficiaryID); err != nil {
			return nil, fmt.Errorf("scan payment relationship: %w", err)
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

// ListSalaries implements finance.Source
func (r *SQLiteRepository) ListSalaries(ctx context.Context) ([]core.Salary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, date, employee_id FROM salaries ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query salaries: %w", err)
	}
	defer rows.Close()

	var out []core.Salary
	for rows.Next() {
		var (
			s      core.Salary
			amount string
			date   sql.NullString
		)
		if err := rows.Scan(&s.ID, &amount, &date, &s.EmployeeID); err != nil {
			return nil, fmt.Errorf("scan salary: %w", err)
		}
		if s.Amount, err = core.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("salary %s: %w", s.ID, err)
		}
		if s.Date, err = scanDate(date); err != nil {
			return nil, fmt.Errorf("salary %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListDebts implements finance.Source
func (r *SQLiteRepository) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, date, person_id, status, concept FROM debts ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		var (
			d              core.Debt
			amount, status string
			date           sql.NullString
		)
		if err := rows.Scan(&d.ID, &amount, &date, &d.PersonID, &status, &d.Concept); err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		if d.Amount, err = core.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("debt %s: %w", d.ID, err)
		}
		if d.Date, err = scanDate(date); err != nil {
			return nil, fmt.Errorf("debt %s: %w", d.ID, err)
		}
		if d.Status, err = core.ParseDebtStatus(status); err != nil {
			return nil, fmt.Errorf("debt %s: %w", d.ID, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListPeople implements finance.PeopleDirectory
func (r *SQLiteRepository) ListPeople(ctx context.Context) ([]core.Person, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, first_name, last_name FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query people: %w", err)
	}
	defer rows.Close()

	var out []core.Person
	for rows.Next() {
		var p core.Person
		if err := rows.Scan(&p.ID, &p.FirstName, &p.LastName); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetEmployee implements attendance.Store
func (r *SQLiteRepository) GetEmployee(ctx context.Context, id string) (core.Employee, error) {
	var (
		e      core.Employee
		salary string
		hired  sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, base_salary, contract_type, hire_date FROM employees WHERE id = ?`, id).
		Scan(&e.ID, &salary, &e.ContractType, &hired)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Employee{}, fmt.Errorf("%w: %s", core.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return core.Employee{}, fmt.Errorf("get employee %s: %w", id, err)
	}
	if e.BaseSalary, err = core.ParseAmount(salary); err != nil {
		return core.Employee{}, fmt.Errorf("employee %s: %w", id, err)
	}
	if e.HireDate, err = scanDate(hired); err != nil {
		return core.Employee{}, fmt.Errorf("employee %s: %w", id, err)
	}
	return e, nil
}

// ListDisbursements implements attendance.Store. Payroll disbursements live
// in the salaries table.
func (r *SQLiteRepository) ListDisbursements(ctx context.Context, employeeID string, dr core.DateRange) ([]core.Disbursement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, date, payer_id, method, receipt_url
		FROM salaries
		WHERE employee_id = ? AND date >= ? AND date < ?
		ORDER BY date, rowid`,
		employeeID, FormatDate(dr.From), FormatDate(dr.To))
	if err != nil {
		return nil, fmt.Errorf("query disbursements: %w", err)
	}
	defer rows.Close()

	var out []core.Disbursement
	for rows.Next() {
		var (
			d              core.Disbursement
			amount, method string
			date           sql.NullString
		)
		if err := rows.Scan(&d.ID, &amount, &date, &d.PayerID, &method, &d.ReceiptURL); err != nil {
			return nil, fmt.Errorf("scan disbursement: %w", err)
		}
		if d.Amount, err = core.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("disbursement %s: %w", d.ID, err)
		}
		if d.Date, err = scanDate(date); err != nil {
			return nil, fmt.Errorf("disbursement %s: %w", d.ID, err)
		}
		d.EmployeeID = employeeID
		d.PayeeID = employeeID
		d.Method = core.ParseMethod(method)
		out = append(out, d)
	}
	return out, rows.Err()
}

const attendanceColumns = `id, employee_id, date, entry, exit, hours_worked, overtime_hours, status, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttendance(s rowScanner) (core.AttendanceRecord, error) {
	var (
		rec                 core.AttendanceRecord
		date, entry, status string
		exit                sql.NullString
		hours, overtime     string
	)
	if err := s.Scan(&rec.ID, &rec.EmployeeID, &date, &entry, &exit, &hours, &overtime, &status, &rec.Version); err != nil {
		return core.AttendanceRecord{}, err
	}
	var err error
	if rec.Date, err = ParseDate(date); err != nil {
		return core.AttendanceRecord{}, err
	}
	if rec.Entry, err = core.ParseClockTime(entry); err != nil {
		return core.AttendanceRecord{}, err
	}
	if exit.Valid {
		t, err := core.ParseClockTime(exit.String)
		if err != nil {
			return core.AttendanceRecord{}, err
		}
		rec.Exit = &t
	}
	if rec.HoursWorked, err = core.ParseAmount(hours); err != nil {
		return core.AttendanceRecord{}, err
	}
	if rec.OvertimeHours, err = core.ParseAmount(overtime); err != nil {
		return core.AttendanceRecord{}, err
	}
	rec.Status = core.AttendanceStatus(status)
	return rec, nil
}

// GetAttendance implements attendance.Store
func (r *SQLiteRepository) GetAttendance(ctx context.Context, employeeID string, date time.Time) (*core.AttendanceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE employee_id = ? AND date = ?`,
		employeeID, FormatDate(date))
	rec, err := scanAttendance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &rec, nil
}

// ListAttendance implements attendance.Store
func (r *SQLiteRepository) ListAttendance(ctx context.Context, employeeID string, dr core.DateRange) ([]core.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance
		WHERE employee_id = ? AND date >= ? AND date < ?
		ORDER BY date`,
		employeeID, FormatDate(dr.From), FormatDate(dr.To))
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var out []core.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// OpenShift inserts an open record. The UNIQUE(employee_id, date) constraint
// turns a concurrent duplicate into core.ErrConflict.
func (r *SQLiteRepository) OpenShift(ctx context.Context, rec core.AttendanceRecord) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (id, employee_id, date, entry, status, version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, date) DO NOTHING`,
		rec.ID, rec.EmployeeID, FormatDate(rec.Date), rec.Entry.String(), string(core.AttendanceOpen), rec.Version)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert attendance rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("open shift %s %s: %w", rec.EmployeeID, FormatDate(rec.Date), core.ErrConflict)
	}

	slog.DebugContext(ctx, "Attendance opened",
		"id", rec.ID,
		"employee_id", rec.EmployeeID,
		"date", FormatDate(rec.Date))
	return nil
}

// CloseShift is a compare-and-swap on (status, version).
func (r *SQLiteRepository) CloseShift(ctx context.Context, rec core.AttendanceRecord, expectedVersion int64) error {
	if rec.Exit == nil {
		return fmt.Errorf("%w: closing %s without exit time", core.ErrInvalidRecord, rec.ID)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance
		SET exit = ?, hours_worked = ?, overtime_hours = ?, status = ?, version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND version = ?`,
		rec.Exit.String(), rec.HoursWorked.String(), rec.OvertimeHours.String(), string(core.AttendanceClosed), rec.Version,
		rec.ID, string(core.AttendanceOpen), expectedVersion)
	if err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attendance rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("close shift %s: %w", rec.ID, core.ErrConflict)
	}

	slog.DebugContext(ctx, "Attendance closed",
		"id", rec.ID,
		"employee_id", rec.EmployeeID,
		"hours_worked", rec.HoursWorked.String())
	return nil
}

// Seed upserts every record in a single transaction.
func (r *SQLiteRepository) Seed(ctx context.Context, recs Records) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	exec := func(query string, args ...any) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	}

	for _, p := range recs.People {
		if err := exec(`INSERT OR REPLACE INTO people (id, first_name, last_name) VALUES (?, ?, ?)`,
			p.ID, p.FirstName, p.LastName); err != nil {
			return fmt.Errorf("seed person %s: %w", p.ID, err)
		}
	}
	for _, e := range recs.Employees {
		if err := exec(`INSERT OR REPLACE INTO employees (id, base_salary, contract_type, hire_date) VALUES (?, ?, ?, ?)`,
			e.ID, e.BaseSalary.String(), e.ContractType, nullDate(e.HireDate)); err != nil {
			return fmt.Errorf("seed employee %s: %w", e.ID, err)
		}
	}
	for _, p := range recs.Payments {
		if err := exec(`INSERT OR REPLACE INTO payments (id, amount, date, concept, method, description) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Amount.String(), nullDate(p.Date), p.Concept, string(p.Method), p.Description); err != nil {
			return fmt.Errorf("seed payment %s: %w", p.ID, err)
		}
	}
	// Relationship rows have no natural key; replace them per payment.
	cleared := make(map[string]bool)
	for _, rel := range recs.Relationships {
		if !cleared[rel.PaymentID] {
			if err := exec(`DELETE FROM payment_relationships WHERE payment_id = ?`, rel.PaymentID); err != nil {
				return fmt.Errorf("clear relationships for %s: %w", rel.PaymentID, err)
			}
			cleared[rel.PaymentID] = true
		}
		if err := exec(`INSERT INTO payment_relationships (payment_id, payer_id, beneficiary_id) VALUES (?, ?, ?)`,
			rel.PaymentID, rel.PayerID, rel.BeneficiaryID); err != nil {
			return fmt.Errorf("seed relationship for %s: %w", rel.PaymentID, err)
		}
	}

	disbursed := make(map[string]core.Disbursement, len(recs.Disbursements))
	for _, d := range recs.Disbursements {
		disbursed[d.ID] = d
	}
	for _, s := range recs.Salaries {
		d := disbursed[s.ID]
		method := d.Method
		if method == "" {
			method = core.MethodOther
		}
		if err := exec(`INSERT OR REPLACE INTO salaries (id, amount, date, employee_id, payer_id, method, receipt_url) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.ID, s.Amount.String(), nullDate(s.Date), s.EmployeeID, d.PayerID, string(method), d.ReceiptURL); err != nil {
			return fmt.Errorf("seed salary %s: %w", s.ID, err)
		}
	}
	for _, d := range recs.Debts {
		if err := exec(`INSERT OR REPLACE INTO debts (id, amount, date, person_id, status, concept) VALUES (?, ?, ?, ?, ?, ?)`,
			d.ID, d.Amount.String(), nullDate(d.Date), d.PersonID, string(d.Status), d.Concept); err != nil {
			return fmt.Errorf("seed debt %s: %w", d.ID, err)
		}
	}
	for _, a := range recs.Attendance {
		var exit sql.NullString
		if a.Exit != nil {
			exit = sql.NullString{String: a.Exit.String(), Valid: true}
		}
		if err := exec(`INSERT OR REPLACE INTO attendance (`+attendanceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.EmployeeID, FormatDate(a.Date), a.Entry.String(), exit,
			a.HoursWorked.String(), a.OvertimeHours.String(), string(a.Status), a.Version); err != nil {
			return fmt.Errorf("seed attendance %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Dataset seeded",
		"payments", len(recs.Payments),
		"salaries", len(recs.Salaries),
		"debts", len(recs.Debts),
		"relationships", len(recs.Relationships),
		"people", len(recs.People),
		"attendance", len(recs.Attendance))
	return nil
}
