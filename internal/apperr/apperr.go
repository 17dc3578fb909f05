// Package apperr defines the typed failures returned by every pipeline stage.
//
// An Error carries an ordered list of causes so that a primary failure and a
// later cleanup failure can both be reported, outermost first.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindIo
	KindNetwork
	KindUnexpectedStatusCode
	KindMissingCookie
	KindParseCrumb
	KindCorruptCache
	KindMissingColumn
	KindMalformedRow
	KindTimeComputation
	KindNotFound
)

var kindNames = map[Kind]string{
	KindUnknown:              "unknown",
	KindInvalidInput:         "invalid input",
	KindIo:                   "io",
	KindNetwork:              "network",
	KindUnexpectedStatusCode: "unexpected status code",
	KindMissingCookie:        "missing cookie",
	KindParseCrumb:           "parse crumb",
	KindCorruptCache:         "corrupt cache",
	KindMissingColumn:        "missing column",
	KindMalformedRow:         "malformed row",
	KindTimeComputation:      "time computation",
	KindNotFound:             "not found",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure with zero or more causes.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // set for KindUnexpectedStatusCode
	Causes     []error
}

func (e *Error) Error() string {
	if len(e.Causes) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = c.Error()
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() []error {
	return e.Causes
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New returns an Error without a cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of the given kind caused by err. A nil err yields a
// cause-less Error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := New(kind, format, args...)
	if err != nil {
		e.Causes = []error{err}
	}
	return e
}

// Status returns a KindUnexpectedStatusCode error for an HTTP response status.
func Status(code int, status string) *Error {
	return &Error{
		Kind:       KindUnexpectedStatusCode,
		Message:    fmt.Sprintf("unexpected response: %s", status),
		StatusCode: code,
	}
}

// WithCleanup chains a cleanup failure onto err. The result keeps err's kind
// and message; cleanupErr becomes the last cause. A nil cleanupErr returns err.
func WithCleanup(err, cleanupErr error) error {
	if cleanupErr == nil {
		return err
	}
	if err == nil {
		return cleanupErr
	}
	if ae, ok := err.(*Error); ok {
		out := *ae
		out.Causes = append(append([]error(nil), ae.Causes...), cleanupErr)
		return &out
	}
	return &Error{Kind: KindOf(err), Message: err.Error(), Causes: []error{cleanupErr}}
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether any *Error in err's tree has the given kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// Lines renders err outermost first: an Error contributes its message and then
// each cause in order; any other error contributes its full text.
func Lines(err error) []string {
	if err == nil {
		return nil
	}
	ae, ok := err.(*Error)
	if !ok {
		return []string{err.Error()}
	}
	lines := []string{ae.Message}
	for _, c := range ae.Causes {
		lines = append(lines, Lines(c)...)
	}
	return lines
}

// Format renders err as "Error: outer" followed by ":\n    cause" per cause.
func Format(err error) string {
	lines := Lines(err)
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(lines[0])
	for _, l := range lines[1:] {
		b.WriteString(":\n    ")
		b.WriteString(l)
	}
	return b.String()
}
