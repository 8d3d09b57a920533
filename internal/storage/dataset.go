package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"condo/internal/attendance"
	"condo/internal/core"
)

// Dataset is the loosely typed seed format. Amounts and dates are strings as
// they come out of the shared store; Records converts and validates them.
type Dataset struct {
	People        []PersonRow       `json:"people"`
	Employees     []EmployeeRow     `json:"employees"`
	Payments      []PaymentRow      `json:"payments"`
	Relationships []RelationshipRow `json:"payment_relationships"`
	Salaries      []SalaryRow       `json:"salaries"`
	Debts         []DebtRow         `json:"debts"`
	Attendance    []AttendanceRow   `json:"attendance"`
}

type (
	PersonRow struct {
		ID        string `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	EmployeeRow struct {
		ID           string `json:"id"`
		BaseSalary   string `json:"base_salary"`
		ContractType string `json:"contract_type"`
		HireDate     string `json:"hire_date"`
	}

	PaymentRow struct {
		ID          string `json:"id"`
		Amount      string `json:"amount"`
		Date        string `json:"date"`
		Concept     string `json:"concept"`
		Method      string `json:"method"`
		Description string `json:"description"`
	}

	RelationshipRow struct {
		PaymentID     string `json:"payment_id"`
		PayerID       string `json:"payer_id"`
		BeneficiaryID string `json:"beneficiary_id"`
	}

	SalaryRow struct {
		ID         string `json:"id"`
		Amount     string `json:"amount"`
		Date       string `json:"date"`
		EmployeeID string `json:"employee_id"`
		PayerID    string `json:"payer_id"`
		Method     string `json:"method"`
		ReceiptURL string `json:"receipt_url"`
	}

	DebtRow struct {
		ID       string `json:"id"`
		Amount   string `json:"amount"`
		Date     string `json:"date"`
		PersonID string `json:"person_id"`
		Status   string `json:"status"`
		Concept  string `json:"concept"`
	}

	AttendanceRow struct {
		ID         string `json:"id"`
		EmployeeID string `json:"employee_id"`
		Date       string `json:"date"`
		Entry      string `json:"entry"`
		Exit       string `json:"exit"`
	}
)

// Records is a validated, typed snapshot of every table.
type Records struct {
	People        []core.Person
	Employees     []core.Employee
	Payments      []core.Payment
	Relationships []core.PaymentRelationship
	Salaries      []core.Salary
	Disbursements []core.Disbursement
	Debts         []core.Debt
	Attendance    []core.AttendanceRecord
}

// LoadDataset reads a JSON dataset from path.
func LoadDataset(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset %s: %w", path, err)
	}
	return ds, nil
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and keeps the calendar date as
// written, dropping time and offset. Empty input yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: bad date %q", core.ErrInvalidRecord, s)
		}
	}
	return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// FormatDate is the inverse of ParseDate; zero dates become "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// Records converts every row, failing on the first malformed one.
func (ds Dataset) Records() (Records, error) {
	var out Records

	for i, r := range ds.People {
		if strings.TrimSpace(r.ID) == "" {
			return Records{}, fmt.Errorf("people[%d]: %w", i, core.ErrEmptyID)
		}
		out.People = append(out.People, core.Person{ID: r.ID, FirstName: r.FirstName, LastName: r.LastName})
	}

	for i, r := range ds.Employees {
		base, err := core.ParseAmount(r.BaseSalary)
		if err != nil {
			return Records{}, fmt.Errorf("employees[%d]: %w", i, err)
		}
		hired, err := ParseDate(r.HireDate)
		if err != nil {
			return Records{}, fmt.Errorf("employees[%d]: %w", i, err)
		}
		if strings.TrimSpace(r.ID) == "" {
			return Records{}, fmt.Errorf("employees[%d]: %w", i, core.ErrEmptyID)
		}
		out.Employees = append(out.Employees, core.Employee{ID: r.ID, BaseSalary: base, ContractType: r.ContractType, HireDate: hired})
	}

	for i, r := range ds.Payments {
		amount, err := core.ParseAmount(r.Amount)
		if err != nil {
			return Records{}, fmt.Errorf("payments[%d]: %w", i, err)
		}
		date, err := ParseDate(r.Date)
		if err != nil {
			return Records{}, fmt.Errorf("payments[%d]: %w", i, err)
		}
		p := core.Payment{ID: r.ID, Amount: amount, Date: date, Concept: r.Concept, Method: core.ParseMethod(r.Method), Description: r.Description}
		if err := p.Validate(); err != nil {
			return Records{}, fmt.Errorf("payments[%d]: %w", i, err)
		}
		out.Payments = append(out.Payments, p)
	}

	for i, r := range ds.Relationships {
		rel := core.PaymentRelationship{PaymentID: r.PaymentID, PayerID: r.PayerID, BeneficiaryID: r.BeneficiaryID}
		if err := rel.Validate(); err != nil {
			return Records{}, fmt.Errorf("payment_relationships[%d]: %w", i, err)
		}
		out.Relationships = append(out.Relationships, rel)
	}

	for i, r := range ds.Salaries {
		amount, err := core.ParseAmount(r.Amount)
		if err != nil {
			return Records{}, fmt.Errorf("salaries[%d]: %w", i, err)
		}
		date, err := ParseDate(r.Date)
		if err != nil {
			return Records{}, fmt.Errorf("salaries[%d]: %w", i, err)
		}
		s := core.Salary{ID: r.ID, Amount: amount, Date: date, EmployeeID: r.EmployeeID}
		if err := s.Validate(); err != nil {
			return Records{}, fmt.Errorf("salaries[%d]: %w", i, err)
		}
		out.Salaries = append(out.Salaries, s)
		if r.EmployeeID != "" {
			out.Disbursements = append(out.Disbursements, core.Disbursement{
				ID:         r.ID,
				EmployeeID: r.EmployeeID,
				Amount:     amount,
				Date:       date,
				PayerID:    r.PayerID,
				PayeeID:    r.EmployeeID,
				Method:     core.ParseMethod(r.Method),
				ReceiptURL: r.ReceiptURL,
			})
		}
	}

	for i, r := range ds.Debts {
		amount, err := core.ParseAmount(r.Amount)
		if err != nil {
			return Records{}, fmt.Errorf("debts[%d]: %w", i, err)
		}
		date, err := ParseDate(r.Date)
		if err != nil {
			return Records{}, fmt.Errorf("debts[%d]: %w", i, err)
		}
		status, err := core.ParseDebtStatus(r.Status)
		if err != nil {
			return Records{}, fmt.Errorf("debts[%d]: %w", i, err)
		}
		d := core.Debt{ID: r.ID, Amount: amount, Date: date, PersonID: r.PersonID, Status: status, Concept: r.Concept}
		if err := d.Validate(); err != nil {
			return Records{}, fmt.Errorf("debts[%d]: %w", i, err)
		}
		out.Debts = append(out.Debts, d)
	}

	for i, r := range ds.Attendance {
		rec, err := r.record()
		if err != nil {
			return Records{}, fmt.Errorf("attendance[%d]: %w", i, err)
		}
		out.Attendance = append(out.Attendance, rec)
	}

	return out, nil
}

func (r AttendanceRow) record() (core.AttendanceRecord, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return core.AttendanceRecord{}, err
	}
	if date.IsZero() || r.ID == "" || r.EmployeeID == "" {
		return core.AttendanceRecord{}, fmt.Errorf("%w: attendance needs id, employee and date", core.ErrInvalidRecord)
	}
	entry, err := core.ParseClockTime(r.Entry)
	if err != nil {
		return core.AttendanceRecord{}, err
	}
	rec := core.AttendanceRecord{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Date:       date,
		Entry:      entry,
		Status:     core.AttendanceOpen,
		Version:    1,
	}
	if strings.TrimSpace(r.Exit) == "" {
		return rec, nil
	}
	exit, err := core.ParseClockTime(r.Exit)
	if err != nil {
		return core.AttendanceRecord{}, err
	}
	return attendance.Close(rec, exit), nil
}
