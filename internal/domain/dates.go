/**
 * @description
 * Calendar-day helpers shared by the expiry and billing calculations. All
 * day-level comparisons in this package operate on UTC dates truncated to
 * midnight so that wall-clock time never changes a "days until" result.
 */
package domain

import "time"

// DateOnly truncates a timestamp to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Negative when b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// EndOfMonth returns the last calendar day of the given month.
func EndOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}
