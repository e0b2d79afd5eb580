package config

import (
	"fmt"
	"net"
	"strings"

	harnesserr "vdsobench/internal/errors"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = fmt.Errorf("configuration validation failed: %w", harnesserr.ErrConfiguration)

// Validate checks the typed settings.
func (s Settings) Validate() error {
	var errors []string

	if s.Benchmark.Iterations < 1 {
		errors = append(errors, fmt.Sprintf("benchmark.iterations must be positive, got: %d", s.Benchmark.Iterations))
	}
	if s.Benchmark.Warmup < 0 {
		errors = append(errors, fmt.Sprintf("benchmark.warmup must not be negative, got: %d", s.Benchmark.Warmup))
	}
	if s.Benchmark.SyscallIterations < 1 {
		errors = append(errors, fmt.Sprintf("benchmark.syscall_iterations must be positive, got: %d", s.Benchmark.SyscallIterations))
	}
	if s.Benchmark.SyscallWarmup < 0 {
		errors = append(errors, fmt.Sprintf("benchmark.syscall_warmup must not be negative, got: %d", s.Benchmark.SyscallWarmup))
	}

	if err := s.Thresholds.Validate(); err != nil {
		errors = append(errors, err.Error())
	}
	if err := s.Stress.Validate(); err != nil {
		errors = append(errors, err.Error())
	}

	switch strings.ToLower(s.History.Type) {
	case "", "file", "json", "sqlite", "sqlite3":
	case "postgres", "postgresql":
		if s.History.DSN == "" {
			errors = append(errors, "history.dsn is required for postgres history")
		}
	default:
		errors = append(errors, fmt.Sprintf("history.type must be file, sqlite or postgres, got: %q", s.History.Type))
	}

	if s.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(s.Metrics.Addr); err != nil {
			errors = append(errors, fmt.Sprintf("metrics.addr must be host:port, got: %q", s.Metrics.Addr))
		}
	}

	if s.Notify.Slack.Enabled && s.Notify.Slack.WebhookURL == "" {
		errors = append(errors, "notify.slack.webhook_url is required when slack notifications are enabled")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalidConfig, strings.Join(errors, "\n  "))
	}
	return nil
}

