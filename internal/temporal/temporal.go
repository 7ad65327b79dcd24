// Package temporal canonicalizes timestamps to UTC and provides DST-safe
// comparison primitives. All stored timestamps are UTC; conversion from a
// caller's local zone happens only at this boundary, never inside
// aggregate logic.
package temporal

import (
	"math"
	"time"

	"github.com/marloe/tend/internal/apperr"
)

// Layouts a zone-less timestamp commonly arrives in. Matching one of these
// means the caller omitted the offset rather than sending garbage, which
// deserves a more specific error.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse decodes an RFC 3339 timestamp and returns it as a UTC instant.
// Timestamps without an explicit UTC offset are rejected: a zone-less
// timestamp is ambiguous and is never silently assumed to be UTC.
func Parse(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if _, naiveErr := time.Parse(layout, value); naiveErr == nil {
			return time.Time{}, apperr.Validation("timestamp %q has no UTC offset; an explicit timezone is required", value)
		}
	}
	return time.Time{}, apperr.Validation("invalid timestamp %q: expected RFC 3339 with UTC offset", value)
}

// ToUTC normalizes t to UTC. The zero value is rejected: it means an
// upstream layer forgot to supply a timestamp at all.
func ToUTC(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, apperr.Validation("timestamp is required")
	}
	return t.UTC(), nil
}

// IsBefore reports whether a is strictly before b on the absolute
// timeline. Wall-clock fields play no part, so DST transitions cannot
// reorder instants.
func IsBefore(a, b time.Time) bool {
	return a.Before(b)
}

// DaysBetween returns the whole days elapsed from a to b, measured on the
// absolute timeline and rounded to the nearest day. Rounding absorbs the
// one-hour skew a DST transition introduces into wall-clock arithmetic:
// a calendar day spanning a spring-forward boundary is 23 absolute hours
// and still counts as one day.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
