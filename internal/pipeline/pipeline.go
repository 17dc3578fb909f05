// Package pipeline runs one acquisition: session, history download, FNU output.
package pipeline

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/collector"
	"Yahoo2FNU/internal/fnu"
	"Yahoo2FNU/internal/logger"
	"Yahoo2FNU/internal/model"
	"Yahoo2FNU/internal/recorder"
	"Yahoo2FNU/internal/session"
)

// StdoutPath as an output path sends the FNU document to the pipeline's Stdout.
const StdoutPath = "-"

// State is a step of a run.
type State string

const (
	StateStart              State = "START"
	StateAcquireSession     State = "ACQUIRE_SESSION"
	StateFetchHistory       State = "FETCH_HISTORY"
	StateInvalidateAndAbort State = "INVALIDATE_AND_ABORT"
	StateWriteOutput        State = "WRITE_OUTPUT"
	StateDone               State = "DONE"
	StateAborted            State = "ABORTED"
)

// SessionAcquirer yields an authorized session.
type SessionAcquirer interface {
	Acquire(ctx context.Context) (model.SessionToken, model.SessionSource, error)
}

// Request is one symbol to convert.
type Request struct {
	Symbol   string
	Column   model.ValueColumn
	Interval model.Interval
	Range    model.DateRange
	Output   string // file path or StdoutPath
}

// Result summarizes a run. It is returned on failure too.
type Result struct {
	State       State
	Source      model.SessionSource
	Invalidated bool
	Rows        int
}

// Pipeline wires the stages together. Runs are sequential; a Pipeline must not
// be shared by concurrent runs.
type Pipeline struct {
	Acquirer SessionAcquirer
	Store    session.Store
	Fetcher  collector.Fetcher
	Recorder recorder.Recorder
	Stdout   io.Writer
	Log      *zap.Logger
	Now      func() time.Time
}

// New creates a Pipeline with stdout output, a no-op recorder and the wall clock.
func New(acq SessionAcquirer, store session.Store, fetcher collector.Fetcher, rec recorder.Recorder, log *zap.Logger) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Pipeline{
		Acquirer: acq,
		Store:    store,
		Fetcher:  fetcher,
		Recorder: rec,
		Stdout:   os.Stdout,
		Log:      logger.OrNop(log).Named("pipeline"),
		Now:      time.Now,
	}
}

// Run executes Start → AcquireSession → FetchHistory → WriteOutput → Done.
// A failed fetch removes the cached session so the next run re-acquires; the
// current run still fails. No stage is retried.
func (p *Pipeline) Run(ctx context.Context, req Request) (res *Result, err error) {
	res = &Result{State: StateStart}
	started := p.Now()
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	defer func() { p.record(req, res, started, err) }()

	if err = validate(req); err != nil {
		return p.abort(res, err)
	}

	p.enter(res, StateAcquireSession)
	token, src, err := p.Acquirer.Acquire(ctx)
	if err != nil {
		return p.abort(res, err)
	}
	res.Source = src

	p.enter(res, StateFetchHistory)
	csv, err := p.Fetcher.Fetch(ctx, req.Symbol, token, req.Range, req.Interval)
	if err != nil {
		p.enter(res, StateInvalidateAndAbort)
		cleanupErr := p.Store.Invalidate()
		res.Invalidated = cleanupErr == nil
		if cleanupErr != nil {
			p.Log.Error("failed to invalidate session cache", zap.Error(cleanupErr))
		} else {
			p.Log.Warn("session cache invalidated after failed fetch", zap.Error(err))
		}
		return p.abort(res, apperr.WithCleanup(err, cleanupErr))
	}

	p.enter(res, StateWriteOutput)
	p.Log.Info("writing FNU", zap.String("symbol", req.Symbol), zap.String("output", req.Output))
	if req.Output == "" || req.Output == StdoutPath {
		res.Rows, err = fnu.Write(p.Stdout, csv, req.Symbol, req.Column)
	} else {
		res.Rows, err = fnu.WriteFile(req.Output, csv, req.Symbol, req.Column)
	}
	if err != nil {
		return p.abort(res, err)
	}

	p.enter(res, StateDone)
	p.Log.Info("done", zap.String("symbol", req.Symbol), zap.Int("rows", res.Rows))
	return res, nil
}

func validate(req Request) error {
	if req.Symbol == "" {
		return apperr.New(apperr.KindInvalidInput, "no symbol provided")
	}
	if strings.ContainsAny(req.Symbol, "/?#, \t") {
		return apperr.New(apperr.KindInvalidInput, "invalid symbol %q", req.Symbol)
	}
	return req.Range.Validate()
}

func (p *Pipeline) enter(res *Result, s State) {
	res.State = s
	p.Log.Debug("state", zap.String("state", string(s)))
}

func (p *Pipeline) abort(res *Result, err error) (*Result, error) {
	p.Log.Debug("aborted", zap.String("from", string(res.State)), zap.Error(err))
	res.State = StateAborted
	return res, err
}

func (p *Pipeline) record(req Request, res *Result, started time.Time, runErr error) {
	evt := &recorder.RunEvent{
		StartedAt:     started,
		Duration:      p.Now().Sub(started),
		Symbol:        req.Symbol,
		Column:        req.Column.Header(),
		Interval:      req.Interval.Param(),
		Period1:       req.Range.Period1(),
		Period2:       req.Range.Period2(),
		SessionSource: string(res.Source),
		Invalidated:   res.Invalidated,
		Rows:          res.Rows,
		Output:        req.Output,
		Status:        recorder.StatusOK,
	}
	if runErr != nil {
		evt.Status = recorder.StatusError
		evt.Error = runErr.Error()
	}
	if err := p.Recorder.RecordRun(evt); err != nil {
		p.Log.Error("record run", zap.Error(err))
	}
}
