// Package cron parses six-field time patterns and computes their next
// occurrences.
//
// A pattern has six whitespace-separated fields, in order: second, minute,
// hour, day-of-month, month and weekday. Months are numbered 0-11 (0 is
// January) and weekdays 0-6 (0 is Sunday). Each field accepts "*", single
// values, lists ("1,3,5"), ranges ("1-5") and steps ("*/15", "0-30/5", "5/10").
// Day-of-month and weekday must both match for an instant to be selected.
package cron

// Field identifies one of the six positions of a pattern.
type Field int

// Pattern field positions, in order.
const (
	Second Field = iota
	Minute
	Hour
	DayOfMonth
	Month
	Weekday
)

// NumFields is the number of fields in a pattern.
const NumFields = 6

type bound struct {
	name     string
	min, max int
}

var bounds = [NumFields]bound{
	Second:     {"second", 0, 59},
	Minute:     {"minute", 0, 59},
	Hour:       {"hour", 0, 23},
	DayOfMonth: {"day-of-month", 1, 31},
	Month:      {"month", 0, 11},
	Weekday:    {"weekday", 0, 6},
}

// String returns the field name used in error messages.
func (f Field) String() string {
	if f < 0 || int(f) >= NumFields {
		return "field"
	}
	return bounds[f].name
}

// Min returns the smallest value accepted by the field.
func (f Field) Min() int { return bounds[f].min }

// Max returns the largest value accepted by the field.
func (f Field) Max() int { return bounds[f].max }

// bitset64 holds a set of integers 0-63.
type bitset64 uint64

func (b bitset64) has(v int) bool { return b&(1<<uint(v)) != 0 }
func (b *bitset64) set(v int)     { *b |= 1 << uint(v) }

// full returns the set holding every value of f.
func full(f Field) bitset64 {
	var b bitset64
	for v := f.Min(); v <= f.Max(); v++ {
		b.set(v)
	}
	return b
}
