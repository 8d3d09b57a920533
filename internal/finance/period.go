package finance

import (
	"time"

	"condo/internal/core"
)

// Dated is any record carrying a calendar date.
type Dated interface {
	RecordDate() time.Time
}

// FilterPeriod keeps records whose date falls in p, preserving order.
// Records without a date are dropped.
func FilterPeriod[T Dated](records []T, p core.Period) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if p.Contains(r.RecordDate()) {
			out = append(out, r)
		}
	}
	return out
}
