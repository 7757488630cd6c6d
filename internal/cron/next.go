package cron

import (
	"time"
)

// horizonYears bounds the occurrence search. The Gregorian weekday and
// leap-year pattern repeats every 28 years within a century, so a pattern
// with no match in that window never matches.
const horizonYears = 28

// Matches reports whether t, in its own location, satisfies every field.
func (p Pattern) Matches(t time.Time) bool {
	return p.sets[Second].has(t.Second()) &&
		p.sets[Minute].has(t.Minute()) &&
		p.sets[Hour].has(t.Hour()) &&
		p.sets[DayOfMonth].has(t.Day()) &&
		p.sets[Month].has(int(t.Month())-1) &&
		p.sets[Weekday].has(int(t.Weekday()))
}

// Next returns the earliest instant strictly after the given time that
// matches p. The calculation happens in after.Location(); sub-second
// precision is dropped. It returns an *UnsatisfiableError when nothing
// matches within the search horizon.
func (p Pattern) Next(after time.Time) (time.Time, error) {
	loc := after.Location()
	t := after.Truncate(time.Second).Add(time.Second)
	limit := t.AddDate(horizonYears, 0, 0)

	for t.Before(limit) {
		if !p.sets[Month].has(int(t.Month()) - 1) {
			t = time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, loc)
			continue
		}
		if !p.sets[DayOfMonth].has(t.Day()) || !p.sets[Weekday].has(int(t.Weekday())) {
			t = time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
			continue
		}
		if !p.sets[Hour].has(t.Hour()) {
			next := time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, loc)
			if !next.After(t) {
				// The next wall-clock hour falls in a DST gap and normalizes
				// back to t; step to the top of the hour in elapsed time.
				next = t.Truncate(time.Minute).Add(time.Duration(60-t.Minute()) * time.Minute)
			}
			t = next
			continue
		}
		if !p.sets[Minute].has(t.Minute()) {
			t = t.Truncate(time.Minute).Add(time.Minute)
			continue
		}
		if !p.sets[Second].has(t.Second()) {
			t = t.Add(time.Second)
			continue
		}
		return t, nil
	}

	return time.Time{}, &UnsatisfiableError{Pattern: p.Source()}
}

// NextN returns the next n occurrences after the given time, in order.
func (p Pattern) NextN(after time.Time, n int) ([]time.Time, error) {
	out := make([]time.Time, 0, n)
	t := after
	for range n {
		next, err := p.Next(t)
		if err != nil {
			return out, err
		}
		out = append(out, next)
		t = next
	}
	return out, nil
}
