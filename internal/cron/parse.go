package cron

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Pattern is a parsed six-field time pattern. The zero value matches
// nothing.
type Pattern struct {
	sets   [NumFields]bitset64
	source string
}

// Parse parses a whitespace-separated six-field pattern.
func Parse(expr string) (Pattern, error) {
	return ParseFields(strings.Fields(expr))
}

// ParseFields parses a pattern already split into fields. When several
// fields are invalid, the returned error joins all of them.
func ParseFields(fields []string) (Pattern, error) {
	if errs := ValidateFields(fields); len(errs) > 0 {
		if len(errs) == 1 {
			return Pattern{}, errs[0]
		}
		return Pattern{}, errors.Join(errs...)
	}

	var p Pattern
	for i, raw := range fields {
		// Already validated above.
		p.sets[i], _ = parseField(Field(i), raw)
	}
	p.source = strings.Join(fields, " ")
	return p, nil
}

// ValidateFields returns every violation found in fields: a
// FieldCountError when there are not exactly six, otherwise one
// SyntaxError or RangeError per offending field. Range checks are only
// made on fields that passed the syntax check.
func ValidateFields(fields []string) []error {
	if len(fields) != NumFields {
		return []error{&FieldCountError{Got: len(fields)}}
	}

	var errs []error
	for i, raw := range fields {
		f := Field(i)
		if !validChars(raw) {
			errs = append(errs, &SyntaxError{Position: i + 1, Field: f, Token: raw})
			continue
		}
		if _, err := parseField(f, raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validChars(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == ',', r == '*', r == '-', r == '/':
		default:
			return false
		}
	}
	return true
}

// parseField resolves one field into its value set.
func parseField(f Field, raw string) (bitset64, error) {
	var set bitset64
	for _, term := range strings.Split(raw, ",") {
		bits, err := parseTerm(f, term)
		if err != nil {
			return 0, err
		}
		set |= bits
	}
	if set == 0 {
		return 0, &RangeError{Field: f, Token: raw, Reason: fmt.Sprintf("%s selects no values", raw)}
	}
	return set, nil
}

// parseTerm parses *, N, A-B, */S, A-B/S or N/S.
func parseTerm(f Field, term string) (bitset64, error) {
	rangeErr := func(format string, args ...any) error {
		return &RangeError{Field: f, Token: term, Reason: fmt.Sprintf(format, args...)}
	}
	if term == "" {
		return 0, rangeErr("has an empty list term")
	}

	base, stepText, stepped := strings.Cut(term, "/")
	step := 1
	if stepped {
		n, err := strconv.Atoi(stepText)
		if err != nil {
			return 0, rangeErr("step %q is not a number", stepText)
		}
		if n <= 0 {
			return 0, rangeErr("step %d must be positive", n)
		}
		step = n
	}

	var lo, hi int
	switch {
	case base == "*":
		lo, hi = f.Min(), f.Max()
	case strings.Contains(base, "-"):
		startText, endText, _ := strings.Cut(base, "-")
		start, err := atoi(startText)
		if err != nil {
			return 0, rangeErr("range %q is malformed", base)
		}
		end, err := atoi(endText)
		if err != nil {
			return 0, rangeErr("range %q is malformed", base)
		}
		if err := checkBound(f, start); err != nil {
			return 0, rangeErr("%s", err)
		}
		if err := checkBound(f, end); err != nil {
			return 0, rangeErr("%s", err)
		}
		if start > end {
			return 0, rangeErr("range start %d > end %d", start, end)
		}
		lo, hi = start, end
	default:
		v, err := atoi(base)
		if err != nil {
			return 0, rangeErr("value %q is malformed", base)
		}
		if err := checkBound(f, v); err != nil {
			return 0, rangeErr("%s", err)
		}
		lo, hi = v, v
		if stepped {
			hi = f.Max()
		}
	}

	var set bitset64
	for v := lo; v <= hi; v += step {
		set.set(v)
		// Stop before v += step can overflow.
		if step > hi-v {
			break
		}
	}
	return set, nil
}

// atoi accepts only plain digit runs.
func atoi(s string) (int, error) {
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return strconv.Atoi(s)
}

func checkBound(f Field, v int) error {
	if v < f.Min() || v > f.Max() {
		return fmt.Errorf("%d out of range %d-%d", v, f.Min(), f.Max())
	}
	return nil
}

// Source returns the pattern as it was written.
func (p Pattern) Source() string {
	if p.source == "" {
		return p.String()
	}
	return p.source
}

// IsZero reports whether p is the zero Pattern.
func (p Pattern) IsZero() bool {
	return p.sets == [NumFields]bitset64{}
}

// Equal reports whether p and q select the same instants.
func (p Pattern) Equal(q Pattern) bool {
	return p.sets == q.sets
}

// Values returns the sorted values selected for field f.
func (p Pattern) Values(f Field) []int {
	var out []int
	for v := f.Min(); v <= f.Max(); v++ {
		if p.sets[f].has(v) {
			out = append(out, v)
		}
	}
	return out
}

// String renders p in canonical form. Parsing the result yields a
// pattern equal to p.
func (p Pattern) String() string {
	parts := make([]string, NumFields)
	for i := range parts {
		parts[i] = formatField(Field(i), p.sets[i])
	}
	return strings.Join(parts, " ")
}

func formatField(f Field, set bitset64) string {
	if set == full(f) {
		return "*"
	}
	if step, ok := uniformStep(f, set); ok {
		return "*/" + strconv.Itoa(step)
	}

	var parts []string
	for v := f.Min(); v <= f.Max(); v++ {
		if !set.has(v) {
			continue
		}
		end := v
		for end+1 <= f.Max() && set.has(end+1) {
			end++
		}
		if end > v {
			parts = append(parts, fmt.Sprintf("%d-%d", v, end))
		} else {
			parts = append(parts, strconv.Itoa(v))
		}
		v = end
	}
	if len(parts) == 0 {
		// Zero pattern; renders as an unparseable marker rather than "*".
		return "-"
	}
	return strings.Join(parts, ",")
}

// uniformStep reports whether set is exactly {min, min+s, min+2s, ...}
// for some s > 1.
func uniformStep(f Field, set bitset64) (int, bool) {
	if !set.has(f.Min()) {
		return 0, false
	}
	step := 0
	for v := f.Min() + 1; v <= f.Max(); v++ {
		if set.has(v) {
			step = v - f.Min()
			break
		}
	}
	if step < 2 {
		return 0, false
	}
	var want bitset64
	for v := f.Min(); v <= f.Max(); v += step {
		want.set(v)
	}
	return step, want == set
}
