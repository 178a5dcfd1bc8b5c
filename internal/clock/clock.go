// Package clock normalizes all quiz timestamps to UTC so that stored start
// times and the live server time are always comparable.
package clock

import (
	"fmt"
	"time"
)

// NowFunc produces the current instant. Services accept one so tests can
// substitute a deterministic clock.
type NowFunc func() time.Time

// Now returns the current instant in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// EnsureUTC converts a timestamp into UTC. The zero time passes through
// unchanged so callers can keep using IsZero checks.
func EnsureUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// Parse reads an RFC 3339 timestamp and normalizes it to UTC. It fails only
// on malformed input; this is the recovery boundary for bad timestamps.
func Parse(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// SecondsBetween returns the whole seconds from start to end after both are
// normalized. Zero inputs yield 0 rather than a garbage delta.
func SecondsBetween(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return int(EnsureUTC(end).Sub(EnsureUTC(start)) / time.Second)
}

// FormatDuration renders a second count as M:SS, or H:MM:SS past an hour.
// Negative input renders as 0:00.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "0:00"
	}
	minutes := seconds / 60
	secs := seconds % 60
	if minutes >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", minutes/60, minutes%60, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
