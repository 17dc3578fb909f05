package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/collector"
	"Yahoo2FNU/internal/config"
	"Yahoo2FNU/internal/logger"
	"Yahoo2FNU/internal/model"
	"Yahoo2FNU/internal/pipeline"
	"Yahoo2FNU/internal/prompt"
	"Yahoo2FNU/internal/recorder"
	"Yahoo2FNU/internal/scheduler"
	"Yahoo2FNU/internal/session"
)

type options struct {
	configPath string
	column     string
	interval   string
	start      string
	end        string
	output     string
	daemon     bool
	args       []string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, apperr.Format(err))
		os.Exit(1)
	}
}

func parseFlags() *options {
	opts := &options{}
	cfgPath := config.DefaultPath
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&opts.configPath, "config", cfgPath, "config file")
	flag.StringVar(&opts.column, "column", "C", "value column: H, L, O, C, A or V")
	flag.StringVar(&opts.interval, "interval", "D", "interval: D, W or M")
	flag.StringVar(&opts.start, "start", "", "start date mm-dd-yyyy (default 12-12-1980)")
	flag.StringVar(&opts.end, "end", "", "end date mm-dd-yyyy (default today)")
	flag.StringVar(&opts.output, "o", pipeline.StdoutPath, "output file, - for stdout")
	flag.BoolVar(&opts.daemon, "daemon", false, "refresh the configured jobs on schedule")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [SYMBOL]\n\nWithout SYMBOL the request is read interactively.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	opts.args = flag.Args()
	return opts
}

func run() error {
	_ = godotenv.Load()
	opts := parseFlags()

	// Load config
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Init HTTP client, session and history stages
	client := collector.NewClient(collector.ClientOptions{
		ProxyURL:    cfg.Network.Proxy,
		UserAgent:   cfg.Network.UserAgent,
		Timeout:     cfg.Timeout(),
		MinInterval: cfg.MinInterval(),
	})
	store := session.NewFileStore(cfg.Session.CachePath)
	acq := session.NewAcquirer(store, client, cfg.Session.QuoteURL, log)
	fetcher := collector.NewYahooFetcher(client, cfg.History.DownloadURL, log)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	p := pipeline.New(acq, store, fetcher, rec, log)

	if opts.daemon {
		return runDaemon(cfg, p, log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req, err := buildRequest(opts, time.Now())
	if err != nil {
		return err
	}
	_, err = p.Run(ctx, req)
	return err
}

// buildRequest reads the request from flags, or from the terminal when no
// symbol is given.
func buildRequest(opts *options, now time.Time) (pipeline.Request, error) {
	end, err := model.DefaultEnd(now)
	if err != nil {
		return pipeline.Request{}, err
	}

	switch len(opts.args) {
	case 0:
		a, err := prompt.New(os.Stdin, os.Stdout).Ask(end)
		if err != nil {
			return pipeline.Request{}, err
		}
		return pipeline.Request{
			Symbol:   a.Symbol,
			Column:   a.Column,
			Interval: a.Interval,
			Range:    a.Range,
			Output:   a.Output,
		}, nil
	case 1:
	default:
		return pipeline.Request{}, apperr.New(apperr.KindInvalidInput, "too many arguments: expected one symbol, got %d", len(opts.args))
	}

	col, err := model.ParseValueColumn(opts.column)
	if err != nil {
		return pipeline.Request{}, err
	}
	iv, err := model.ParseInterval(opts.interval)
	if err != nil {
		return pipeline.Request{}, err
	}
	start, err := model.ParseDate(opts.start, model.DefaultStart)
	if err != nil {
		return pipeline.Request{}, err
	}
	if end, err = model.ParseDate(opts.end, end); err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		Symbol:   opts.args[0],
		Column:   col,
		Interval: iv,
		Range:    model.DateRange{Start: start, End: end},
		Output:   opts.output,
	}, nil
}

func runDaemon(cfg *config.Config, p *pipeline.Pipeline, log *zap.Logger) error {
	if err := cfg.ValidateSchedule(); err != nil {
		return fmt.Errorf("schedule validation: %w", err)
	}
	for _, j := range cfg.Schedule.Jobs {
		if j.Output == pipeline.StdoutPath {
			return fmt.Errorf("schedule job %s: daemon jobs must write to a file", j.Symbol)
		}
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, p, cfg.Schedule.Jobs, log)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()

	if cfg.Schedule.RunOnStart {
		log.Info("RUN_ON_START enabled, refreshing now")
		go sched.RunNow()
	}

	log.Info("yahoo2fnu daemon is running. Press Ctrl+C to stop.", zap.String("cron", cfg.Schedule.Cron))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	sched.Stop()
	return nil
}
