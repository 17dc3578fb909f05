// Package prompt collects a conversion request from a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/fnu"
	"Yahoo2FNU/internal/model"
)

// Answers is what the user chose.
type Answers struct {
	Symbol   string
	Column   model.ValueColumn
	Interval model.Interval
	Range    model.DateRange
	Output   string
}

// Prompter asks questions on Out and reads answers from In.
type Prompter struct {
	In  *bufio.Reader
	Out io.Writer
}

// New creates a Prompter.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{In: bufio.NewReader(in), Out: out}
}

// Ask walks through every question. Invalid choices are asked again; end of
// input aborts with InvalidInput. defaultEnd is offered for a blank end date.
func (p *Prompter) Ask(defaultEnd time.Time) (*Answers, error) {
	a := &Answers{}
	var err error

	for a.Symbol == "" {
		if a.Symbol, err = p.line("Enter symbol: "); err != nil {
			return nil, err
		}
		a.Symbol = strings.ToUpper(a.Symbol)
	}

	if err = p.until(p.columnQuestion(), func(s string) (err error) {
		a.Column, err = model.ParseValueColumn(s)
		return
	}); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("Start date (mm-dd-yyyy, blank for %s): ", model.DefaultStart.Format(model.DateLayout))
	if err = p.until(q, func(s string) (err error) {
		a.Range.Start, err = model.ParseDate(s, model.DefaultStart)
		return
	}); err != nil {
		return nil, err
	}

	q = "End date (mm-dd-yyyy, blank for today): "
	if err = p.until(q, func(s string) (err error) {
		if a.Range.End, err = model.ParseDate(s, defaultEnd); err != nil {
			return err
		}
		return a.Range.Validate()
	}); err != nil {
		return nil, err
	}

	if err = p.until("Interval [D]aily, [W]eekly, [M]onthly: ", func(s string) (err error) {
		a.Interval, err = model.ParseInterval(s)
		return
	}); err != nil {
		return nil, err
	}

	def := fnu.DefaultPath(a.Symbol)
	out, err := p.line(fmt.Sprintf("Output file (blank for %s): ", def))
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = def
	}
	a.Output = out
	return a, nil
}

func (p *Prompter) columnQuestion() string {
	parts := make([]string, 0, len(model.ValueColumns))
	for _, c := range model.ValueColumns {
		parts = append(parts, "["+c.Letter()+"]"+c.Label()[1:])
	}
	return "Value " + strings.Join(parts, ", ") + ": "
}

// until repeats question until accept returns nil.
func (p *Prompter) until(question string, accept func(string) error) error {
	for {
		s, err := p.line(question)
		if err != nil {
			return err
		}
		if err := accept(s); err != nil {
			fmt.Fprintln(p.Out, apperr.Lines(err)[0])
			continue
		}
		return nil
	}
}

func (p *Prompter) line(question string) (string, error) {
	fmt.Fprint(p.Out, question)
	s, err := p.In.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && s != "" {
			return strings.TrimSpace(s), nil
		}
		if errors.Is(err, io.EOF) {
			return "", apperr.New(apperr.KindInvalidInput, "input ended before all answers were given")
		}
		return "", apperr.Wrap(apperr.KindIo, err, "read input")
	}
	return strings.TrimSpace(s), nil
}
