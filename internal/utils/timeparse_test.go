package utils

import (
	"errors"
	"testing"
	"time"
)

func TestParseShortTime(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	got, ok := ParseShortTime("1h30m", now)
	if !ok {
		t.Fatalf("expected 1h30m to parse")
	}
	if want := now.Add(90 * time.Minute); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	got, ok = ParseShortTime("2w 1d", now)
	if !ok {
		t.Fatalf("expected 2w 1d to parse")
	}
	if want := now.AddDate(0, 0, 15); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	got, ok = ParseShortTime("1mo", now)
	if !ok || !got.Equal(now.AddDate(0, 1, 0)) {
		t.Fatalf("expected one month, got %s ok=%v", got, ok)
	}

	if _, ok := ParseShortTime("", now); ok {
		t.Fatalf("expected empty input to fail")
	}
	if _, ok := ParseShortTime("tomorrow", now); ok {
		t.Fatalf("expected words to fail the short form")
	}
}

func TestParseFutureTimeNatural(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	got, err := ParseFutureTime("in 2 hours", now, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if want := now.Add(2 * time.Hour); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	got, err = ParseFutureTime("3 hours", now, 0)
	if err != nil {
		t.Fatalf("parse with implicit in: %v", err)
	}
	if want := now.Add(3 * time.Hour); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestParseFutureTimeErrors(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if _, err := ParseFutureTime("gibberish", now, 0); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected invalid time, got %v", err)
	}
	if _, err := ParseFutureTime("0s", now, 0); !errors.Is(err, ErrPastTime) {
		t.Fatalf("expected past time, got %v", err)
	}
}

func TestDiscordTimestamp(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	if got := DiscordTimestamp(ts, "F"); got != "<t:1700000000:F>" {
		t.Fatalf("unexpected timestamp %q", got)
	}
}
