package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"Yahoo2FNU/internal/config"
	"Yahoo2FNU/internal/logger"
	"Yahoo2FNU/internal/model"
	"Yahoo2FNU/internal/pipeline"
)

// Runner executes one conversion.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Scheduler re-runs the configured jobs on a cron expression.
type Scheduler struct {
	Cron   *cron.Cron
	Runner Runner
	Jobs   []config.Job
	Log    *zap.Logger
	Ctx    context.Context
	Now    func() time.Time

	mu sync.Mutex
}

// NewScheduler creates a new Scheduler. Overlapping ticks are skipped.
func NewScheduler(ctx context.Context, runner Runner, jobs []config.Job, log *zap.Logger) *Scheduler {
	log = logger.OrNop(log).Named("scheduler")
	cl := cronLogger{log}
	return &Scheduler{
		Cron:   cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		Runner: runner,
		Jobs:   jobs,
		Log:    log,
		Ctx:    ctx,
		Now:    time.Now,
	}
}

// Register adds one cron entry that runs every job in order.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", zap.Int("jobs", len(s.Jobs)))
}

// Stop stops the cron scheduler and waits for a running refresh.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunNow runs every job once. A failed job is logged and the rest still run.
// A call made while a refresh is in progress is skipped.
func (s *Scheduler) RunNow() {
	if !s.mu.TryLock() {
		s.Log.Warn("refresh already running, skipped")
		return
	}
	defer s.mu.Unlock()

	s.Log.Info("running refresh", zap.Int("jobs", len(s.Jobs)))
	failed := 0
	for _, job := range s.Jobs {
		if s.Ctx.Err() != nil {
			s.Log.Warn("refresh cancelled")
			return
		}
		if err := s.runJob(job); err != nil {
			failed++
			s.Log.Error("job failed", zap.Stringer("job", job), zap.Error(err))
		}
	}
	s.Log.Info("refresh finished", zap.Int("failed", failed))
}

func (s *Scheduler) runJob(job config.Job) error {
	req, err := Request(job, s.Now())
	if err != nil {
		return err
	}
	res, err := s.Runner.Run(s.Ctx, req)
	if err != nil {
		return err
	}
	s.Log.Info("job done", zap.Stringer("job", job), zap.Int("rows", res.Rows), zap.String("session", string(res.Source)))
	return nil
}

// Request turns a configured job into a pipeline request ending at now.
func Request(job config.Job, now time.Time) (pipeline.Request, error) {
	col, err := model.ParseValueColumn(job.Column)
	if err != nil {
		return pipeline.Request{}, err
	}
	iv, err := model.ParseInterval(job.Interval)
	if err != nil {
		return pipeline.Request{}, err
	}
	r, err := job.Range(now)
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		Symbol:   job.Symbol,
		Column:   col,
		Interval: iv,
		Range:    r,
		Output:   job.Output,
	}, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug(msg, zap.Any("details", kv))
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error(msg, zap.Error(err), zap.Any("details", kv))
}
