package attendance

import (
	"time"

	"condo/internal/core"
)

// State of an employee's attendance for one calendar date.
type State string

const (
	StateAbsent State = "absent"
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// StateOf maps the stored record, if any, to its state.
func StateOf(rec *core.AttendanceRecord) State {
	switch {
	case rec == nil:
		return StateAbsent
	case rec.IsClosed():
		return StateClosed
	default:
		return StateOpen
	}
}

// Next returns the transition the next clock action performs. A closed day
// accepts no further actions.
func Next(rec *core.AttendanceRecord) (core.ClockTransition, error) {
	switch StateOf(rec) {
	case StateAbsent:
		return core.TransitionOpened, nil
	case StateOpen:
		return core.TransitionClosed, nil
	default:
		return "", core.ErrShiftAlreadyClosed
	}
}

// ClosesOvernight reports whether a clock action at the given time on the
// following date still belongs to rec: rec is open, at is earlier in the day
// than its entry, and the shift stays within MaxOvernightMinutes.
func ClosesOvernight(rec *core.AttendanceRecord, at core.ClockTime) bool {
	if StateOf(rec) != StateOpen || at >= rec.Entry {
		return false
	}
	return MinutesBetween(rec.Entry, at) <= MaxOvernightMinutes
}

// Open builds the record created by the first action of the day.
func Open(id, employeeID string, date time.Time, at core.ClockTime) core.AttendanceRecord {
	return core.AttendanceRecord{
		ID:         id,
		EmployeeID: employeeID,
		Date:       date,
		Entry:      at,
		Status:     core.AttendanceOpen,
		Version:    1,
	}
}

// Close returns rec with its exit set and hours computed. rec is not modified.
func Close(rec core.AttendanceRecord, at core.ClockTime) core.AttendanceRecord {
	exit := at
	hours := HoursBetween(rec.Entry, exit)
	_, overtime := SplitOvertime(hours)

	rec.Exit = &exit
	rec.HoursWorked = hours
	rec.OvertimeHours = overtime
	rec.Status = core.AttendanceClosed
	rec.Version++
	return rec
}
