// Package recurrence computes due dates for scheduled fixed expenses.
//
// Every rule is a closed-form step (a fixed number of days, or a number of
// calendar months with the day clamped to the target month's length), so the
// returned date is always strictly after the input.
package recurrence

import (
	"fmt"
	"time"

	"finanzas/internal/dates"
)

// Frequency is the cadence of a fixed expense.
type Frequency string

const (
	Unico      Frequency = "unico"
	Semanal    Frequency = "semanal"
	Quincenal  Frequency = "quincenal"
	Mensual    Frequency = "mensual"
	Bimestral  Frequency = "bimestral"
	Trimestral Frequency = "trimestral"
	Semestral  Frequency = "semestral"
	Anual      Frequency = "anual"
)

// Frequencies lists every supported frequency.
var Frequencies = []Frequency{Unico, Semanal, Quincenal, Mensual, Bimestral, Trimestral, Semestral, Anual}

var dayOffsets = map[Frequency]int{
	Semanal:   7,
	Quincenal: 14,
}

var monthOffsets = map[Frequency]int{
	Mensual:    1,
	Bimestral:  2,
	Trimestral: 3,
	Semestral:  6,
	Anual:      12,
}

var labels = map[Frequency]string{
	Unico:      "Único",
	Semanal:    "Semanal",
	Quincenal:  "Quincenal",
	Mensual:    "Mensual",
	Bimestral:  "Bimestral",
	Trimestral: "Trimestral",
	Semestral:  "Semestral",
	Anual:      "Anual",
}

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	_, ok := labels[f]
	return ok
}

// Label returns the display name.
func (f Frequency) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// Recurring reports whether f produces more than one occurrence.
func (f Frequency) Recurring() bool {
	return f.Valid() && f != Unico
}

// ParseFrequency validates a frequency string.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("unsupported frequency %q", s)
	}
	return f, nil
}

// Next returns the due date following current. dayOfMonth anchors monthly
// schedules (1-31, clamped to short months); any other value falls back to
// current's day. ok is false for one-time and unknown frequencies, meaning
// the schedule has no further occurrence.
func Next(current time.Time, freq Frequency, dayOfMonth int) (next time.Time, ok bool) {
	current = dates.Truncate(current)

	if days, found := dayOffsets[freq]; found {
		return current.AddDate(0, 0, days), true
	}

	months, found := monthOffsets[freq]
	if !found {
		return time.Time{}, false
	}

	anchor := current.Day()
	if freq == Mensual && dayOfMonth >= 1 && dayOfMonth <= 31 {
		anchor = dayOfMonth
	}
	return dates.AddMonthsClamped(current, months, anchor), true
}

// Upcoming returns up to n due dates starting at (and including) first.
func Upcoming(first time.Time, freq Frequency, dayOfMonth, n int) []time.Time {
	if n <= 0 || !freq.Valid() {
		return nil
	}
	out := make([]time.Time, 0, n)
	current := dates.Truncate(first)
	for len(out) < n {
		out = append(out, current)
		next, ok := Next(current, freq, dayOfMonth)
		if !ok {
			break
		}
		current = next
	}
	return out
}
