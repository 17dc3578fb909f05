package prompt

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/model"
)

var today = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

func TestAsk_Defaults(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("spy\nc\n\n\nd\n\n"), &out)

	a, err := p.Ask(today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Symbol != "SPY" || a.Column != model.Close || a.Interval != model.Daily {
		t.Errorf("unexpected answers %+v", a)
	}
	if !a.Range.Start.Equal(model.DefaultStart) || !a.Range.End.Equal(today) {
		t.Errorf("unexpected range %+v", a.Range)
	}
	if a.Output != "SPY.fnu" {
		t.Errorf("expected default output SPY.fnu, got %q", a.Output)
	}
	if !strings.Contains(out.String(), "[A]djusted Close") {
		t.Errorf("column question missing from %q", out.String())
	}
}

func TestAsk_RepromptsOnInvalidInput(t *testing.T) {
	input := strings.Join([]string{
		"",           // empty symbol
		"qqq",        //
		"x",          // bad column
		"v",          //
		"2020-01-01", // bad date
		"01-02-2020", //
		"01-01-2019", // before start
		"03-04-2021", //
		"y",          // bad interval
		"W",          //
		"out.fnu",    //
	}, "\n") + "\n"
	var out bytes.Buffer
	a, err := New(strings.NewReader(input), &out).Ask(today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Symbol != "QQQ" || a.Column != model.Volume || a.Interval != model.Weekly || a.Output != "out.fnu" {
		t.Errorf("unexpected answers %+v", a)
	}
	if a.Range.Start.Format(model.DateLayout) != "01-02-2020" || a.Range.End.Format(model.DateLayout) != "03-04-2021" {
		t.Errorf("unexpected range %+v", a.Range)
	}
	if n := strings.Count(out.String(), "invalid"); n < 3 {
		t.Errorf("expected invalid answers to be reported, output %q", out.String())
	}
}

func TestAsk_EOF(t *testing.T) {
	for _, input := range []string{"", "spy\n", "spy\nh\n\n"} {
		_, err := New(strings.NewReader(input), &bytes.Buffer{}).Ask(today)
		if apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Errorf("input %q: expected invalid input, got %v", input, err)
		}
	}
}

func TestAsk_LastLineWithoutNewline(t *testing.T) {
	a, err := New(strings.NewReader("spy\nh\n\n\nm\nx.fnu"), &bytes.Buffer{}).Ask(today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Output != "x.fnu" || a.Column != model.High || a.Interval != model.Monthly {
		t.Errorf("unexpected answers %+v", a)
	}
}
