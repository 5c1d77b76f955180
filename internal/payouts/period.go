package payouts

import "time"

// Payout periods are Wednesday-anchored UTC weeks: [Wed 00:00, next Wed 00:00).

// Period is one half-open weekly payout window.
type Period struct {
	Start time.Time
	End   time.Time
}

// PeriodFor returns the payout period containing t.
func PeriodFor(t time.Time) Period {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	daysSinceWednesday := (int(midnight.Weekday()) - int(time.Wednesday) + 7) % 7
	start := midnight.AddDate(0, 0, -daysSinceWednesday)
	return Period{Start: start, End: start.AddDate(0, 0, 7)}
}

// PreviousPeriod returns the most recently closed period as of t.
func PreviousPeriod(t time.Time) Period {
	current := PeriodFor(t)
	return Period{Start: current.Start.AddDate(0, 0, -7), End: current.Start}
}

// IsPeriodStart reports whether t is a valid period boundary, a Wednesday
// midnight in UTC.
func IsPeriodStart(t time.Time) bool {
	u := t.UTC()
	return u.Weekday() == time.Wednesday &&
		u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0
}
