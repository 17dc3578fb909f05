package recorder

import "time"

// RunEvent describes one pipeline run.
type RunEvent struct {
	StartedAt     time.Time
	Duration      time.Duration
	Symbol        string
	Column        string // provider header, e.g. "Adj Close"
	Interval      string // provider parameter, e.g. "1d"
	Period1       int64
	Period2       int64
	SessionSource string // "cached", "fresh" or empty when acquisition failed
	Invalidated   bool   // cached session removed after a rejected fetch
	Rows          int
	Output        string
	Status        string // "OK" or "ERROR"
	Error         string
}

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	Close() error
}
