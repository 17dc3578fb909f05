package model

import (
	"strings"
	"time"

	"Yahoo2FNU/internal/apperr"
)

// DefaultStart is the earliest date requested when no start is given (12/12/1980).
var DefaultStart = time.Unix(345448800, 0).UTC()

// DateLayout is the mm-dd-yyyy layout accepted on the command line.
const DateLayout = "01-02-2006"

// DateRange is the requested history window. The provider includes both ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate checks Start <= End.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return apperr.New(apperr.KindInvalidInput, "start date %s is after end date %s",
			r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// Period1 is the start as Unix seconds.
func (r DateRange) Period1() int64 { return r.Start.Unix() }

// Period2 is the end as Unix seconds.
func (r DateRange) Period2() int64 { return r.End.Unix() }

// DefaultEnd returns now as the end of range. A clock reading before the Unix
// epoch cannot be expressed on the wire.
func DefaultEnd(now time.Time) (time.Time, error) {
	if now.Unix() < 0 {
		return time.Time{}, apperr.New(apperr.KindTimeComputation, "failed to calculate current time: clock is before the Unix epoch")
	}
	return now, nil
}

// ParseDate parses an mm-dd-yyyy date. Blank input returns def.
func ParseDate(s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Wrap(apperr.KindInvalidInput, err, "invalid date %q (expected mm-dd-yyyy)", s)
	}
	return t, nil
}

// Interval is the sampling interval of the requested history.
type Interval int

const (
	Daily Interval = iota
	Weekly
	Monthly
)

// Intervals lists every interval in prompt order.
var Intervals = []Interval{Daily, Weekly, Monthly}

// ParseInterval maps D, W or M (any case) to an Interval.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "D":
		return Daily, nil
	case "W":
		return Weekly, nil
	case "M":
		return Monthly, nil
	}
	return 0, apperr.New(apperr.KindInvalidInput, "invalid interval %q (expected D, W or M)", s)
}

// Param is the provider's interval query value.
func (i Interval) Param() string {
	switch i {
	case Weekly:
		return "1wk"
	case Monthly:
		return "1mo"
	default:
		return "1d"
	}
}

func (i Interval) Label() string {
	switch i {
	case Weekly:
		return "Weekly"
	case Monthly:
		return "Monthly"
	default:
		return "Daily"
	}
}

// Letter is the single-letter code accepted by ParseInterval.
func (i Interval) Letter() string { return i.Label()[:1] }

// ValueColumn selects which CSV column feeds the FNU value field.
type ValueColumn int

const (
	High ValueColumn = iota
	Low
	Open
	Close
	AdjustedClose
	Volume
)

// ValueColumns lists every column in prompt order.
var ValueColumns = []ValueColumn{High, Low, Open, Close, AdjustedClose, Volume}

var columnInfo = map[ValueColumn]struct {
	letter, header, label string
}{
	High:          {"H", "High", "High"},
	Low:           {"L", "Low", "Low"},
	Open:          {"O", "Open", "Open"},
	Close:         {"C", "Close", "Close"},
	AdjustedClose: {"A", "Adj Close", "Adjusted Close"},
	Volume:        {"V", "Volume", "Volume"},
}

// ParseValueColumn maps H, L, O, C, A or V (any case) to a ValueColumn.
func ParseValueColumn(s string) (ValueColumn, error) {
	letter := strings.ToUpper(strings.TrimSpace(s))
	for _, c := range ValueColumns {
		if columnInfo[c].letter == letter {
			return c, nil
		}
	}
	return 0, apperr.New(apperr.KindInvalidInput, "invalid value column %q (expected H, L, O, C, A or V)", s)
}

// Header is the provider's literal CSV header for the column.
func (c ValueColumn) Header() string { return columnInfo[c].header }

func (c ValueColumn) Label() string { return columnInfo[c].label }

func (c ValueColumn) Letter() string { return columnInfo[c].letter }

// HistoryRow is one converted CSV row. Value keeps the provider's text,
// including placeholders such as "null".
type HistoryRow struct {
	Date  string // mm/dd/yyyy
	Value string
}
