package payouts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodFor(t *testing.T) {
	// 2026-03-04 is a Wednesday.
	anchor := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday midnight", anchor, anchor},
		{"wednesday afternoon", anchor.Add(15 * time.Hour), anchor},
		{"thursday", anchor.AddDate(0, 0, 1), anchor},
		{"tuesday rolls back", anchor.AddDate(0, 0, 6), anchor},
		{"next wednesday starts new period", anchor.AddDate(0, 0, 7), anchor.AddDate(0, 0, 7)},
		{"sunday", time.Date(2026, 3, 8, 12, 30, 0, 0, time.UTC), anchor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			period := PeriodFor(tc.in)
			assert.Equal(t, tc.want, period.Start)
			assert.Equal(t, tc.want.AddDate(0, 0, 7), period.End)
		})
	}
}

func TestPeriodForNonUTCInput(t *testing.T) {
	manila := time.FixedZone("PST", 8*3600)
	// Wednesday 07:00 in Manila is Tuesday 23:00 UTC.
	in := time.Date(2026, 3, 4, 7, 0, 0, 0, manila)
	period := PeriodFor(in)
	assert.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), period.Start)
}

func TestPreviousPeriod(t *testing.T) {
	anchor := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	period := PreviousPeriod(anchor)
	assert.Equal(t, time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), period.Start)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), period.End)
}

func TestIsPeriodStart(t *testing.T) {
	assert.True(t, IsPeriodStart(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsPeriodStart(time.Date(2026, 3, 4, 1, 0, 0, 0, time.UTC)))
	assert.False(t, IsPeriodStart(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))
	// Wednesday midnight Manila is not a boundary in UTC.
	manila := time.FixedZone("PST", 8*3600)
	assert.False(t, IsPeriodStart(time.Date(2026, 3, 4, 0, 0, 0, 0, manila)))
}
