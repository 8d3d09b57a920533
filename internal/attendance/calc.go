package attendance

import (
	"github.com/shopspring/decimal"

	"condo/internal/core"
)

const (
	minutesPerDay = 24 * 60

	// MaxOvernightMinutes bounds how long a shift left open on one date can
	// run into the next before a clock action starts a new day instead.
	MaxOvernightMinutes = 16 * 60

	normalShiftMinutes = 8 * 60
)

var (
	// NormalShiftHours is the daily threshold beyond which time is overtime.
	NormalShiftHours = decimal.NewFromInt(8)

	overtimeFactor = decimal.RequireFromString("1.25")
	daysPerMonth   = decimal.NewFromInt(30)
	sixty          = decimal.NewFromInt(60)
)

// HoursBetween returns elapsed hours from entry to exit, rounded to 2 places.
// An exit earlier than entry is taken to be on the following day.
func HoursBetween(entry, exit core.ClockTime) decimal.Decimal {
	return hoursOf(MinutesBetween(entry, exit))
}

// MinutesBetween is the exact elapsed time behind HoursBetween.
func MinutesBetween(entry, exit core.ClockTime) int {
	mins := int(exit) - int(entry)
	if mins < 0 {
		mins += minutesPerDay
	}
	return mins
}

func overtimeMinutes(mins int) int {
	return max(0, mins-normalShiftMinutes)
}

func hoursOf(mins int) decimal.Decimal {
	return decimal.NewFromInt(int64(mins)).Div(sixty).Round(2)
}

// SplitOvertime caps normal time at NormalShiftHours.
func SplitOvertime(hours decimal.Decimal) (normal, overtime decimal.Decimal) {
	if hours.GreaterThan(NormalShiftHours) {
		return NormalShiftHours, hours.Sub(NormalShiftHours)
	}
	return hours, decimal.Zero
}

// HourlyRate derives the normal rate from a monthly salary: base / 30 / 8.
func HourlyRate(baseSalary decimal.Decimal) decimal.Decimal {
	return baseSalary.Div(daysPerMonth).Div(NormalShiftHours)
}

func OvertimeRate(baseSalary decimal.Decimal) decimal.Decimal {
	return HourlyRate(baseSalary).Mul(overtimeFactor)
}

// OvertimePay is overtime hours at 1.25x the hourly rate, rounded to cents.
func OvertimePay(overtimeHours, baseSalary decimal.Decimal) decimal.Decimal {
	return overtimeHours.Mul(OvertimeRate(baseSalary)).Round(2)
}
