package attendance

import (
	"context"
	"time"

	"condo/internal/core"
)

// Store persists attendance and reads payroll data.
type Store interface {
	// GetAttendance returns nil, nil when no record exists for that date.
	GetAttendance(ctx context.Context, employeeID string, date time.Time) (*core.AttendanceRecord, error)
	// OpenShift inserts rec; core.ErrConflict if one already exists for the date.
	OpenShift(ctx context.Context, rec core.AttendanceRecord) error
	// CloseShift stores rec only if the stored row is still open at
	// expectedVersion, core.ErrConflict otherwise.
	CloseShift(ctx context.Context, rec core.AttendanceRecord, expectedVersion int64) error
	ListAttendance(ctx context.Context, employeeID string, r core.DateRange) ([]core.AttendanceRecord, error)
	GetEmployee(ctx context.Context, employeeID string) (core.Employee, error)
	ListDisbursements(ctx context.Context, employeeID string, r core.DateRange) ([]core.Disbursement, error)
}

// PeopleDirectory resolves payer and payee names. Optional.
type PeopleDirectory interface {
	ListPeople(ctx context.Context) ([]core.Person, error)
}

// Publisher receives clock events after a transition is stored.
type Publisher interface {
	PublishClockEvent(ctx context.Context, ev core.ClockEvent) error
}
