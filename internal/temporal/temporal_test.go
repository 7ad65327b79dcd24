package temporal

import (
	"testing"
	"time"

	"github.com/marloe/tend/internal/apperr"
)

func TestParse_WithOffset(t *testing.T) {
	got, err := Parse("2025-03-08T10:00:00-05:00")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
}

func TestParse_Zulu(t *testing.T) {
	got, err := Parse("2025-06-01T12:30:00Z")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Hour() != 12 || got.Minute() != 30 {
		t.Errorf("got %v", got)
	}
}

func TestParse_NaiveRejected(t *testing.T) {
	for _, value := range []string{
		"2025-03-08T10:00:00",
		"2025-03-08 10:00:00",
		"2025-03-08",
	} {
		_, err := Parse(value)
		if err == nil {
			t.Errorf("Parse(%q) should fail", value)
			continue
		}
		if !apperr.IsValidation(err) {
			t.Errorf("Parse(%q) error kind = %v, want validation", value, apperr.KindOf(err))
		}
	}
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse("next tuesday")
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperr.IsValidation(err) {
		t.Errorf("kind = %v, want validation", apperr.KindOf(err))
	}
}

func TestToUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	in := time.Date(2025, 3, 8, 10, 0, 0, 0, loc)
	got, err := ToUTC(in)
	if err != nil {
		t.Fatalf("ToUTC: %v", err)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
	if !got.Equal(in) {
		t.Error("ToUTC must preserve the instant")
	}
}

func TestToUTC_ZeroRejected(t *testing.T) {
	if _, err := ToUTC(time.Time{}); err == nil {
		t.Fatal("zero time should fail")
	}
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		b    time.Time
		want int
	}{
		{"same instant", base, 0},
		{"one day", base.Add(24 * time.Hour), 1},
		{"thirty-one days", base.Add(31 * 24 * time.Hour), 31},
		{"half day rounds down", base.Add(11 * time.Hour), 0},
		{"23 hours rounds up", base.Add(23 * time.Hour), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysBetween(base, tc.b); got != tc.want {
				t.Errorf("DaysBetween = %d, want %d", got, tc.want)
			}
		})
	}
}

// A spring-forward boundary sits between the two instants: only 23
// absolute hours elapse even though wall clocks show a full day.
func TestDaysBetween_DSTTransition(t *testing.T) {
	a, err := Parse("2025-03-08T10:00:00-05:00")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("2025-03-09T10:00:00-04:00")
	if err != nil {
		t.Fatal(err)
	}
	if got := DaysBetween(a, b); got != 1 {
		t.Errorf("DaysBetween across DST = %d, want 1", got)
	}
}

func TestIsBefore(t *testing.T) {
	a := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := a.Add(time.Second)
	if !IsBefore(a, b) {
		t.Error("a should be before b")
	}
	if IsBefore(b, a) {
		t.Error("b should not be before a")
	}
	if IsBefore(a, a) {
		t.Error("IsBefore must be strict")
	}
}
