package domain

import (
	"testing"
	"time"

	"github.com/marloe/tend/internal/apperr"
)

func intp(v int) *int { return &v }

func timep(t time.Time) *time.Time { return &t }

func TestNormalizeTagName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"#Mentor", "#mentor", false},
		{"#project-x", "#project-x", false},
		{"#Topics/Career", "#topics/career", false},
		{" #friends ", "#friends", false},
		{"mentor", "", true},
		{"#", "", true},
		{"#-leading-dash", "", true},
		{"#has space", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeTagName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeTagName(%q) should fail", tc.in)
			} else if !apperr.IsValidation(err) {
				t.Errorf("NormalizeTagName(%q) kind = %v, want validation", tc.in, apperr.KindOf(err))
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeTagName(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeTagName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTagNames_Dedup(t *testing.T) {
	got, err := NormalizeTagNames([]string{"#A", "#b", "#a", "#B"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "#a" || got[1] != "#b" {
		t.Errorf("got %v, want [#a #b]", got)
	}
}

func TestTagSetFrequency_Bounds(t *testing.T) {
	tag := &Tag{Name: "#mentor"}
	for _, days := range []int{0, -1, 366} {
		if err := tag.SetFrequency(intp(days)); err == nil {
			t.Errorf("SetFrequency(%d) should fail", days)
		}
	}
	for _, days := range []int{1, 30, 365} {
		if err := tag.SetFrequency(intp(days)); err != nil {
			t.Errorf("SetFrequency(%d): %v", days, err)
		}
	}
}

func TestTagSetFrequency_ClearPreservesLastContact(t *testing.T) {
	last := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tag := &Tag{Name: "#mentor", FrequencyDays: intp(7), LastContact: timep(last)}
	if err := tag.SetFrequency(nil); err != nil {
		t.Fatal(err)
	}
	if tag.FrequencyDays != nil {
		t.Error("frequency should be cleared")
	}
	if tag.LastContact == nil || !tag.LastContact.Equal(last) {
		t.Error("clearing frequency must not erase last_contact")
	}
}

func TestTagMarkContacted_Monotonic(t *testing.T) {
	tag := &Tag{Name: "#mentor"}
	t1 := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	if !tag.MarkContacted(t1) {
		t.Fatal("first mark should advance")
	}
	// Backfilled earlier interaction must not regress.
	if tag.MarkContacted(t2) {
		t.Error("earlier date should not advance")
	}
	if !tag.LastContact.Equal(t1) {
		t.Errorf("last_contact = %v, want %v", tag.LastContact, t1)
	}
	// Same date is idempotent.
	if tag.MarkContacted(t1) {
		t.Error("equal date should be a no-op")
	}
}

func TestTagStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		tag     Tag
		want    StatusKind
		overdue int
	}{
		{"no frequency", Tag{}, StatusNotTracked, 0},
		{"tracked, never contacted", Tag{FrequencyDays: intp(30)}, StatusNeverContacted, 0},
		{
			"29 days ago, freq 30",
			Tag{FrequencyDays: intp(30), LastContact: timep(now.Add(-29 * 24 * time.Hour))},
			StatusFresh, 0,
		},
		{
			"31 days ago, freq 30",
			Tag{FrequencyDays: intp(30), LastContact: timep(now.Add(-31 * 24 * time.Hour))},
			StatusStale, 1,
		},
		{
			"8 days ago, freq 7",
			Tag{FrequencyDays: intp(7), LastContact: timep(now.Add(-8 * 24 * time.Hour))},
			StatusStale, 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.tag.Status(now)
			if got.Kind != tc.want {
				t.Errorf("kind = %s, want %s", got.Kind, tc.want)
			}
			if got.OverdueDays != tc.overdue {
				t.Errorf("overdue = %d, want %d", got.OverdueDays, tc.overdue)
			}
		})
	}
}

// Staleness must be computed on absolute instants: one calendar day
// across a spring-forward boundary is 23 absolute hours, still one day.
func TestTagStatus_DST(t *testing.T) {
	last := time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)  // 10:00-05:00
	check := time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC) // 10:00-04:00
	tag := Tag{FrequencyDays: intp(1), LastContact: timep(last)}
	got := tag.Status(check)
	if got.Kind != StatusFresh {
		t.Errorf("kind = %s, want fresh (elapsed 1 day, freq 1)", got.Kind)
	}
}
