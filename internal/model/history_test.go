package model

import (
	"strings"
	"testing"
	"time"

	"Yahoo2FNU/internal/apperr"
)

func TestParseValueColumn(t *testing.T) {
	tests := []struct {
		input  string
		want   ValueColumn
		header string
	}{
		{"H", High, "High"},
		{"l", Low, "Low"},
		{"O", Open, "Open"},
		{"c", Close, "Close"},
		{" A ", AdjustedClose, "Adj Close"},
		{"V", Volume, "Volume"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseValueColumn(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if got.Header() != tt.header {
				t.Errorf("expected header %q, got %q", tt.header, got.Header())
			}
		})
	}

	if _, err := ParseValueColumn("X"); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input string
		param string
	}{
		{"D", "1d"},
		{"w", "1wk"},
		{"M", "1mo"},
	}
	for _, tt := range tests {
		iv, err := ParseInterval(tt.input)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.input, err)
		}
		if iv.Param() != tt.param {
			t.Errorf("%s: expected param %q, got %q", tt.input, tt.param, iv.Param())
		}
		if iv.Letter() != strings.ToUpper(tt.input) {
			t.Errorf("%s: letter round trip failed, got %q", tt.input, iv.Letter())
		}
	}
	if _, err := ParseInterval("Y"); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestDateRange(t *testing.T) {
	start := time.Date(2020, 3, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	r := DateRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if r.Period1() != start.Unix() || r.Period2() != end.Unix() {
		t.Error("period values must be Unix seconds")
	}

	reversed := DateRange{Start: end, End: start}
	if err := reversed.Validate(); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("expected invalid input for reversed range, got %v", err)
	}

	same := DateRange{Start: start, End: start}
	if err := same.Validate(); err != nil {
		t.Errorf("single-day range should be valid: %v", err)
	}
}

func TestParseDate(t *testing.T) {
	def := DefaultStart
	got, err := ParseDate("", def)
	if err != nil || !got.Equal(def) {
		t.Errorf("expected default for blank input, got %v, %v", got, err)
	}

	got, err = ParseDate("03-05-2020", def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Year() != 2020 || got.Month() != time.March || got.Day() != 5 {
		t.Errorf("unexpected date %v", got)
	}

	if _, err := ParseDate("2020-03-05", def); apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Errorf("expected invalid input for ISO date, got %v", err)
	}
}

func TestDefaultEnd(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got, err := DefaultEnd(now)
	if err != nil || !got.Equal(now) {
		t.Errorf("expected now back, got %v, %v", got, err)
	}
	if _, err := DefaultEnd(time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)); apperr.KindOf(err) != apperr.KindTimeComputation {
		t.Errorf("expected time computation error, got %v", err)
	}
}

func TestSessionTokenValidate(t *testing.T) {
	if err := (SessionToken{Cookie: "B=abc", Crumb: "xyz"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (SessionToken{Cookie: "B=abc"}).Validate(); apperr.KindOf(err) != apperr.KindCorruptCache {
		t.Errorf("expected corrupt cache, got %v", err)
	}
}
