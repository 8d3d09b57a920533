package core

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Period selects a reporting window. Zero fields are unconstrained.
type Period struct {
	Year  int
	Month int // 1-12
}

func (p Period) Validate() error {
	if p.Year < 0 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, p.Year)
	}
	if p.Month < 0 || p.Month > 12 {
		return fmt.Errorf("%w: month %d outside 1-12", ErrInvalidPeriod, p.Month)
	}
	return nil
}

// Contains compares calendar components of t, never the instant.
func (p Period) Contains(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if p.Year != 0 && t.Year() != p.Year {
		return false
	}
	if p.Month != 0 && int(t.Month()) != p.Month {
		return false
	}
	return true
}

// WantsMonthly reports whether a twelve-month breakdown applies.
func (p Period) WantsMonthly() bool {
	return p.Year != 0 && p.Month == 0
}

// DateRange is half-open: [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// MonthRange returns the range covering one calendar month in loc.
func MonthRange(year, month int, loc *time.Location) DateRange {
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return DateRange{From: from, To: from.AddDate(0, 1, 0)}
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// NewDate creates a calendar date at midnight UTC.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
