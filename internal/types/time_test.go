package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysUntilDue(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{name: "later today", due: now.Add(2 * time.Hour), want: 1},
		{name: "exactly now", due: now, want: 0},
		{name: "ten days ahead", due: now.AddDate(0, 0, 10), want: 10},
		{name: "ten days late", due: now.AddDate(0, 0, -10), want: -10},
		{name: "a few hours late", due: now.Add(-5 * time.Hour), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilDue(tt.due, now))
		})
	}
}

func TestCalendarHelpers(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	local := time.Date(2024, time.March, 1, 2, 0, 0, 0, ist)

	// 02:00 IST on March 1st is still February in UTC
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(local))
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), StartOfDay(local))

	issue := time.Date(2024, time.December, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, time.January, 14, 9, 0, 0, 0, time.UTC), AddDays(issue, 30))
	assert.Equal(t, issue, AddDays(issue, 0))
}
