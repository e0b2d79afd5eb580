package config

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"vdsobench/internal/db"
	"vdsobench/internal/predicate"
	"vdsobench/internal/stress"
)

// BenchmarkSettings sizes the fast-path and syscall-path runs of `bench`.
type BenchmarkSettings struct {
	Iterations        int `mapstructure:"iterations" yaml:"iterations"`
	Warmup            int `mapstructure:"warmup" yaml:"warmup"`
	SyscallIterations int `mapstructure:"syscall_iterations" yaml:"syscall_iterations"`
	SyscallWarmup     int `mapstructure:"syscall_warmup" yaml:"syscall_warmup"`
}

// HistorySettings selects where benchmark runs are persisted.
type HistorySettings struct {
	Type string `mapstructure:"type" yaml:"type"`
	Path string `mapstructure:"path" yaml:"path"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// StoreConfig maps the history block onto the store factory.
func (h HistorySettings) StoreConfig() db.StoreConfig {
	conn := h.Path
	if h.Type == "postgres" || h.Type == "postgresql" {
		conn = h.DSN
	}
	return db.StoreConfig{Type: h.Type, ConnectionString: conn}
}

type MetricsSettings struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	File string `mapstructure:"file" yaml:"file"`
}

type SlackSettings struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
}

type NotifySettings struct {
	Slack SlackSettings `mapstructure:"slack" yaml:"slack"`
}

type LogSettings struct {
	File string `mapstructure:"file" yaml:"file"`
}

// Settings is the typed view of the effective configuration.
type Settings struct {
	Verbose    bool                 `mapstructure:"verbose" yaml:"verbose"`
	Benchmark  BenchmarkSettings    `mapstructure:"benchmark" yaml:"benchmark"`
	Thresholds predicate.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
	Stress     stress.Settings      `mapstructure:"stress" yaml:"stress"`
	History    HistorySettings      `mapstructure:"history" yaml:"history"`
	Metrics    MetricsSettings      `mapstructure:"metrics" yaml:"metrics"`
	Notify     NotifySettings       `mapstructure:"notify" yaml:"notify"`
	Log        LogSettings          `mapstructure:"log" yaml:"log"`
}

// Current decodes the loaded viper state.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return s, nil
}

// YAML renders the settings the way a config file would spell them.
func (s Settings) YAML() ([]byte, error) {
	return yaml.Marshal(s)
}
