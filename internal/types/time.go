package types

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DaysUntilDue returns whole days from now until dueDate, rounded up.
// Negative values mean the invoice is past due.
func DaysUntilDue(dueDate, now time.Time) int {
	return int(math.Ceil(dueDate.Sub(now).Hours() / 24))
}

// StartOfMonth returns midnight UTC of the first day of t's month
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// StartOfDay returns midnight UTC of t's day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays shifts t by n days
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * day)
}
