package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"Yahoo2FNU/internal/model"
)

// DefaultPath is read when neither CONFIG_PATH nor -config is given.
const DefaultPath = "configs/config.yaml"

// Job is one scheduled conversion.
type Job struct {
	Symbol       string `yaml:"symbol"`
	Column       string `yaml:"column"`   // H, L, O, C, A or V
	Interval     string `yaml:"interval"` // D, W or M
	Output       string `yaml:"output"`
	Start        string `yaml:"start"` // mm-dd-yyyy
	LookbackDays int    `yaml:"lookback_days"`
}

// Config holds all application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Session  struct {
		CachePath string `yaml:"cache_path"`
		QuoteURL  string `yaml:"quote_url"`
	} `yaml:"session"`
	History struct {
		DownloadURL string `yaml:"download_url"`
	} `yaml:"history"`
	Network struct {
		Proxy          string `yaml:"proxy"`
		UserAgent      string `yaml:"user_agent"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		MinIntervalMS  int    `yaml:"min_interval_ms"`
	} `yaml:"network"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start"`
		Jobs       []Job  `yaml:"jobs"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("YAHOO2FNU_CACHE_PATH"); v != "" {
		cfg.Session.CachePath = v
	}
	if v := os.Getenv("YAHOO2FNU_QUOTE_URL"); v != "" {
		cfg.Session.QuoteURL = v
	}
	if v := os.Getenv("YAHOO2FNU_DOWNLOAD_URL"); v != "" {
		cfg.History.DownloadURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Network.Proxy = v
	}
	if v := os.Getenv("YAHOO2FNU_USER_AGENT"); v != "" {
		cfg.Network.UserAgent = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = parseBool(v)
	}

	// Defaults
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Network.TimeoutSeconds == 0 {
		cfg.Network.TimeoutSeconds = 30
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 30 22 * * 1-5"
	}
	for i := range cfg.Schedule.Jobs {
		j := &cfg.Schedule.Jobs[i]
		j.Symbol = strings.ToUpper(strings.TrimSpace(j.Symbol))
		if j.Column == "" {
			j.Column = model.Close.Letter()
		}
		if j.Interval == "" {
			j.Interval = model.Daily.Letter()
		}
	}

	return cfg, nil
}

// Timeout is the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Network.TimeoutSeconds) * time.Second
}

// MinInterval is the minimum spacing between outgoing requests.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Network.MinIntervalMS) * time.Millisecond
}

// Validate checks field ranges. Jobs are only checked when scheduling is used.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	if c.Network.TimeoutSeconds < 0 {
		return fmt.Errorf("network.timeout_seconds must not be negative")
	}
	if c.Network.MinIntervalMS < 0 {
		return fmt.Errorf("network.min_interval_ms must not be negative")
	}
	return nil
}

// ValidateSchedule checks the cron expression and every job.
func (c *Config) ValidateSchedule() error {
	if len(c.Schedule.Jobs) == 0 {
		return fmt.Errorf("schedule.jobs is empty")
	}
	if _, err := cron.NewParser(cronFields).Parse(c.Schedule.Cron); err != nil {
		return fmt.Errorf("schedule.cron: %w", err)
	}
	for i, j := range c.Schedule.Jobs {
		if err := j.validate(); err != nil {
			return fmt.Errorf("schedule.jobs[%d]: %w", i, err)
		}
	}
	return nil
}

// cronFields matches cron.WithSeconds.
const cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor

func (j Job) validate() error {
	if j.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if _, err := model.ParseValueColumn(j.Column); err != nil {
		return err
	}
	if _, err := model.ParseInterval(j.Interval); err != nil {
		return err
	}
	if j.Output == "" {
		return fmt.Errorf("output is required")
	}
	if j.Start != "" && j.LookbackDays != 0 {
		return fmt.Errorf("start and lookback_days are exclusive")
	}
	if j.LookbackDays < 0 {
		return fmt.Errorf("lookback_days must not be negative")
	}
	if _, err := model.ParseDate(j.Start, model.DefaultStart); err != nil {
		return err
	}
	return nil
}

// Range resolves the job's date range ending at now.
func (j Job) Range(now time.Time) (model.DateRange, error) {
	end, err := model.DefaultEnd(now)
	if err != nil {
		return model.DateRange{}, err
	}
	start := model.DefaultStart
	switch {
	case j.LookbackDays > 0:
		start = end.AddDate(0, 0, -j.LookbackDays)
	case j.Start != "":
		if start, err = model.ParseDate(j.Start, model.DefaultStart); err != nil {
			return model.DateRange{}, err
		}
	}
	return model.DateRange{Start: start, End: end}, nil
}

// String is a short job label for logs.
func (j Job) String() string {
	return j.Symbol + "/" + j.Column + "/" + j.Interval + " -> " + j.Output
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
