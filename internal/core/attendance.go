package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AttendanceOpen   AttendanceStatus = "registrado"
	AttendanceClosed AttendanceStatus = "completado"
)

// Clock transitions.
const (
	TransitionOpened ClockTransition = "opened"
	TransitionClosed ClockTransition = "closed"
)

const (
	PaymentStatusPaid    = "pagado"
	PaymentStatusPending = "pendiente"
)

type (
	AttendanceStatus string
	ClockTransition  string

	// ClockTime is a wall-clock value in minutes since midnight, no date.
	ClockTime int

	AttendanceRecord struct {
		ID            string           `json:"id"`
		EmployeeID    string           `json:"employee_id"`
		Date          time.Time        `json:"date"`
		Entry         ClockTime        `json:"entry"`
		Exit          *ClockTime       `json:"exit,omitempty"`
		HoursWorked   decimal.Decimal  `json:"hours_worked"`
		OvertimeHours decimal.Decimal  `json:"overtime_hours"`
		Status        AttendanceStatus `json:"status"`
		Version       int64            `json:"version"`
	}

	Employee struct {
		ID           string
		BaseSalary   decimal.Decimal
		ContractType string
		HireDate     time.Time
	}

	// Disbursement is a payroll payment made to an employee.
	Disbursement struct {
		ID         string
		EmployeeID string
		Amount     decimal.Decimal
		Date       time.Time
		PayerID    string
		PayeeID    string
		Method     PaymentMethod
		ReceiptURL string
	}

	// ClockEvent announces a completed clock transition.
	ClockEvent struct {
		ID         string          `json:"id"`
		EmployeeID string          `json:"employee_id"`
		Date       time.Time       `json:"date"`
		Transition ClockTransition `json:"transition"`
		At         string          `json:"at"`
		Timestamp  time.Time       `json:"timestamp"`
	}
)

var (
	ErrInvalidClockTime   = errors.New("invalid clock time")
	ErrEmployeeNotFound   = errors.New("employee not found")
	ErrShiftAlreadyClosed = errors.New("attendance already closed for this date")
	ErrConflict           = errors.New("concurrent attendance update")
)

// ParseClockTime accepts HH:MM or HH:MM:SS. Seconds are truncated.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
		}
	}
	return ClockTime(h*60 + m), nil
}

// ClockTimeOf extracts the wall-clock component of t.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	v, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (r AttendanceRecord) RecordDate() time.Time { return r.Date }

func (r AttendanceRecord) IsClosed() bool {
	return r.Status == AttendanceClosed
}

func (d Disbursement) RecordDate() time.Time { return d.Date }
