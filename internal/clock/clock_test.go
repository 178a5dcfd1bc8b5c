package clock

import (
	"testing"
	"time"
)

func TestEnsureUTCConvertsZones(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	local := time.Date(2025, 3, 1, 12, 0, 0, 0, loc)

	got := EnsureUTC(local)
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", got.Location())
	}
	if !got.Equal(local) {
		t.Fatalf("conversion changed the instant: %v vs %v", got, local)
	}
	if got.Hour() != 5 {
		t.Fatalf("expected 05:00 UTC, got %02d:00", got.Hour())
	}
}

func TestEnsureUTCZeroPassesThrough(t *testing.T) {
	var zero time.Time
	if !EnsureUTC(zero).IsZero() {
		t.Fatalf("expected zero time to stay zero")
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("2025-03-01T12:00:00+07:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Location() != time.UTC || got.Hour() != 5 {
		t.Fatalf("expected 05:00 UTC, got %v", got)
	}

	if _, err := Parse("not-a-timestamp"); err == nil {
		t.Fatalf("expected error for malformed input")
	}
}

func TestSecondsBetweenMixedZones(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	start := time.Date(2025, 3, 1, 7, 0, 0, 0, loc) // 12:00 UTC
	end := time.Date(2025, 3, 1, 12, 0, 30, 0, time.UTC)

	if got := SecondsBetween(start, end); got != 30 {
		t.Fatalf("expected 30 seconds, got %d", got)
	}
	if got := SecondsBetween(time.Time{}, end); got != 0 {
		t.Fatalf("expected 0 for zero start, got %d", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{-5, "0:00"},
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{1799, "29:59"},
		{3661, "1:01:01"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Fatalf("FormatDuration(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
