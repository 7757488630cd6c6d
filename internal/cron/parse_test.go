package cron

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func mustParse(t *testing.T, expr string) Pattern {
	t.Helper()
	p, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q): %v", expr, err)
	}
	return p
}

func TestParse_Values(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr  string
		field Field
		want  []int
	}{
		{"* * * * * *", Weekday, []int{0, 1, 2, 3, 4, 5, 6}},
		{"0 30 11 * * 1-5", Weekday, []int{1, 2, 3, 4, 5}},
		{"0 30 11 * * 1-5", Minute, []int{30}},
		{"*/20 * * * * *", Second, []int{0, 20, 40}},
		{"5/20 * * * * *", Second, []int{5, 25, 45}},
		{"0 0-30/10 * * * *", Minute, []int{0, 10, 20, 30}},
		{"0 0 1,13,22 * * *", Hour, []int{1, 13, 22}},
		{"00 00 00 1 0 *", Month, []int{0}},
		{"0 0 0 1 0,11 *", Month, []int{0, 11}},
		{"0 0 0 1-3,5 * *", DayOfMonth, []int{1, 2, 3, 5}},
		{"30/9223372036854775807 * * * * *", Second, []int{30}},
		{"2-59/9223372036854775807 * * * * *", Second, []int{2}},
		{"0 0 0 * 0/100 *", Month, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.expr+"/"+tt.field.String(), func(t *testing.T) {
			t.Parallel()
			p := mustParse(t, tt.expr)
			if got := p.Values(tt.field); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values(%s) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestParse_FieldCount(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "* * * * *", "* * * * * * *"} {
		_, err := Parse(expr)
		var fce *FieldCountError
		if !errors.As(err, &fce) {
			t.Fatalf("Parse(%q) error = %v, want FieldCountError", expr, err)
		}
		if fce.Got != len(strings.Fields(expr)) {
			t.Errorf("Got = %d, want %d", fce.Got, len(strings.Fields(expr)))
		}
	}
}

func TestParse_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := Parse("0 0 x * * MON")
	if err == nil {
		t.Fatal("expected error")
	}

	errs := ValidateFields(strings.Fields("0 0 x * * MON"))
	if len(errs) != 2 {
		t.Fatalf("got %d violations, want 2: %v", len(errs), errs)
	}
	var se *SyntaxError
	if !errors.As(errs[0], &se) {
		t.Fatalf("first violation = %v, want SyntaxError", errs[0])
	}
	if se.Position != 3 || se.Field != Hour || se.Token != "x" {
		t.Errorf("SyntaxError = %+v", se)
	}
	if !strings.Contains(se.Error(), "Use: 0-9,*-/") {
		t.Errorf("message %q lacks allowed character hint", se.Error())
	}
	if !errors.As(errs[1], &se) || se.Position != 6 {
		t.Errorf("second violation = %v, want SyntaxError at position 6", errs[1])
	}
}

func TestParse_RangeError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr  string
		field Field
		msg   string
	}{
		{"00 00 00 99 * *", DayOfMonth, "day-of-month 99 out of range 1-31"},
		{"60 * * * * *", Second, "second 60 out of range 0-59"},
		{"* * 24 * * *", Hour, "hour 24 out of range 0-23"},
		{"* * * * 12 *", Month, "month 12 out of range 0-11"},
		{"* * * * * 7", Weekday, "weekday 7 out of range 0-6"},
		{"* * * 0 * *", DayOfMonth, "day-of-month 0 out of range 1-31"},
		{"* 5-3 * * * *", Minute, "range start 5 > end 3"},
		{"*/0 * * * * *", Second, "step 0 must be positive"},
		{"1,,2 * * * * *", Second, "empty list term"},
		{"1-2-3 * * * * *", Second, "malformed"},
		{"*/ * * * * *", Second, "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.expr)
			var re *RangeError
			if !errors.As(err, &re) {
				t.Fatalf("error = %v, want RangeError", err)
			}
			if re.Field != tt.field {
				t.Errorf("Field = %s, want %s", re.Field, tt.field)
			}
			if !strings.Contains(re.Error(), tt.msg) {
				t.Errorf("message %q does not contain %q", re.Error(), tt.msg)
			}
		})
	}
}

func TestParse_AggregatesFields(t *testing.T) {
	t.Parallel()

	_, err := Parse("61 x 00 99 * *")
	if err == nil {
		t.Fatal("expected error")
	}
	lines := strings.Split(err.Error(), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), err)
	}
	var se *SyntaxError
	if !errors.As(err, &se) || se.Position != 2 {
		t.Errorf("expected SyntaxError at position 2 in %v", err)
	}
}

func TestPattern_StringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{
		"* * * * * *",
		"0 30 11 * * 1-5",
		"*/15 0 0 1 0 *",
		"5/20 1,2,3,9 0-23/6 1-31/2 0,6,11 0,6",
		"00 00 00 01 00 *",
	} {
		p := mustParse(t, expr)
		again := mustParse(t, p.String())
		if !p.Equal(again) {
			t.Errorf("round trip of %q via %q changed the pattern", expr, p.String())
		}
		if p.Source() != expr {
			t.Errorf("Source() = %q, want %q", p.Source(), expr)
		}
	}

	if got := mustParse(t, "*/30 0-59 1,2,3 * * 1-5").String(); got != "*/30 * 1-3 * * 1-5" {
		t.Errorf("String() = %q", got)
	}
}
