// Package dates holds calendar-date helpers. Dates are represented as
// time.Time values at midnight UTC so they compare and persist consistently.
package dates

import "time"

// Layout is the wire and CSV format for calendar dates.
const Layout = "2006-01-02"

// Truncate drops the clock part of t, keeping its calendar date in t's location.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), DaysIn(t.Year(), t.Month()), 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped moves t by n calendar months and places it on day, clamped
// to the length of the target month. Unlike time.AddDate it never spills into
// the following month (Jan 31 + 1 month is Feb 28/29, not Mar 3).
func AddMonthsClamped(t time.Time, n int, day int) time.Time {
	// Normalize through day 1 so the month arithmetic itself cannot overflow.
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := DaysIn(first.Year(), first.Month())
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the number of whole calendar months from a to b,
// counting a partial month as one. Non-positive when b is not after a.
func MonthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
	if b.Day() > a.Day() {
		months++
	}
	return months
}
