package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the on-disk configuration. YAML and JSON are both accepted;
// YAML is coerced to JSON and strict-decoded (unknown fields are errors).
type Config struct {
	Log     LogConfig     `json:"log"`
	Desk    DeskConfig    `json:"desk"`
	Journal JournalConfig `json:"journal"`
	Metrics MetricsConfig `json:"metrics"`
	Stats   StatsConfig   `json:"stats"`
}

type LogConfig struct {
	Level   string          `json:"level"`
	Console bool            `json:"console"`
	File    LogFileConfig   `json:"file"`
	Alerts  LogAlertsConfig `json:"alerts"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LogAlertsConfig struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

type DeskConfig struct {
	// ServiceTime is the fixed per-order service duration, e.g. "10s".
	ServiceTime string `json:"service_time"`

	serviceTime time.Duration
}

// Duration returns the parsed service time. Valid only after Validate().
func (c DeskConfig) Duration() time.Duration { return c.serviceTime }

type JournalConfig struct {
	// Driver: "none" (default), "file" (JSONL append) or "sqlite".
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout"`

	busyTimeout time.Duration
}

func (c JournalConfig) BusyTimeoutDuration() time.Duration { return c.busyTimeout }

type MetricsConfig struct {
	// Listen is a host:port for the Prometheus endpoint; empty disables it.
	Listen string `json:"listen"`
}

type StatsConfig struct {
	Enabled bool   `json:"enabled"`
	Every   string `json:"every"`

	every time.Duration
}

func (c StatsConfig) EveryDuration() time.Duration { return c.every }

// Default returns the configuration used when no file is present.
// File contents decode over these values, so omitted fields keep defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
		Desk: DeskConfig{
			ServiceTime: "10s",
		},
		Journal: JournalConfig{
			Driver: "none",
		},
		Stats: StatsConfig{
			Every: "30s",
		},
	}
}

// Validate parses duration fields and checks enumerations.
func (c *Config) Validate() error {
	var err error
	if c.Desk.serviceTime, err = ParseDurationOrDefault("desk.service_time", c.Desk.ServiceTime, 10*time.Second); err != nil {
		return err
	}
	if c.Journal.busyTimeout, err = ParseDurationField("journal.busy_timeout", c.Journal.BusyTimeout); err != nil {
		return err
	}
	if c.Stats.every, err = ParseDurationOrDefault("stats.every", c.Stats.Every, 30*time.Second); err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(c.Journal.Driver)) {
	case "", "none", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("journal.driver: unknown driver %q", c.Journal.Driver)
	}
	return nil
}
