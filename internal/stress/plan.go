package stress

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vdsobench/internal/clocksource"
	"vdsobench/internal/predicate"
	"vdsobench/internal/report"
)

// Settings are the scenario sizes.
type Settings struct {
	SustainedDuration time.Duration `mapstructure:"sustained_duration" yaml:"sustained_duration"`
	Threads           int           `mapstructure:"threads" yaml:"threads"`
	ThreadDuration    time.Duration `mapstructure:"thread_duration" yaml:"thread_duration"`
	JoinGrace         time.Duration `mapstructure:"join_grace" yaml:"join_grace"`
	Processes         int           `mapstructure:"processes" yaml:"processes"`
	ProcessCalls      int           `mapstructure:"process_calls" yaml:"process_calls"`
	ProcessTimeout    time.Duration `mapstructure:"process_timeout" yaml:"process_timeout"`
}

// DefaultSettings returns the stock scenario sizes.
func DefaultSettings() Settings {
	return Settings{
		SustainedDuration: 10 * time.Second,
		Threads:           10,
		ThreadDuration:    time.Second,
		JoinGrace:         2 * time.Second,
		Processes:         10,
		ProcessCalls:      100_000,
		ProcessTimeout:    time.Minute,
	}
}

func (s Settings) Validate() error {
	var problems []string
	if s.SustainedDuration <= 0 || s.ThreadDuration <= 0 {
		problems = append(problems, "durations must be positive")
	}
	if s.JoinGrace <= 0 {
		problems = append(problems, "join_grace must be positive")
	}
	if s.ProcessTimeout <= 0 {
		problems = append(problems, "process_timeout must be positive")
	}
	if s.Threads < 1 {
		problems = append(problems, fmt.Sprintf("threads must be >= 1, got %d", s.Threads))
	}
	if s.Processes < 1 || s.ProcessCalls < 1 {
		problems = append(problems, fmt.Sprintf("processes and process_calls must be >= 1, got %d and %d", s.Processes, s.ProcessCalls))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// Plan binds settings to the source under load.
type Plan struct {
	Settings Settings
	Source   clocksource.Source
	Clock    clocksource.ClockID
	// Spawner starts multi-process children; nil skips that scenario.
	Spawner Spawner
	// Observe, when set, receives every aggregate before it becomes a verdict.
	Observe func(Aggregate)
}

// Predicates exposes the scenarios as stress-category predicates so the
// suite runs, skips and tallies them with everything else.
func (p *Plan) Predicates() []predicate.Predicate {
	return []predicate.Predicate{
		{Name: SustainedScenario, Category: report.Stress, Check: func(ctx context.Context, _ *predicate.Harness) predicate.Verdict {
			return p.verdict(Sustained(ctx, p.Source, p.Clock, p.Settings.SustainedDuration))
		}},
		{Name: MultiThreadScenario, Category: report.Stress, Check: func(ctx context.Context, _ *predicate.Harness) predicate.Verdict {
			s := p.Settings
			return p.verdict(MultiThread(ctx, p.Source, p.Clock, s.Threads, s.ThreadDuration, s.JoinGrace))
		}},
		{Name: MultiProcessScenario, Category: report.Stress, Check: func(ctx context.Context, _ *predicate.Harness) predicate.Verdict {
			if p.Spawner == nil {
				return report.Skip(MultiProcessScenario, report.Stress, "no worker spawner")
			}
			s := p.Settings
			return p.verdict(MultiProcess(ctx, p.Spawner, s.Processes, s.ProcessCalls, s.ProcessTimeout, s.JoinGrace))
		}},
	}
}

func (p *Plan) verdict(agg Aggregate) predicate.Verdict {
	if p.Observe != nil {
		p.Observe(agg)
	}
	return Verdict(agg)
}

// Verdict converts an aggregate into a stress verdict.
func Verdict(agg Aggregate) report.Verdict {
	if err := agg.FirstError(); err != nil {
		return report.Fail(agg.Scenario, report.Stress, err)
	}
	v := report.Check(agg.Scenario, report.Stress, agg.AllSucceeded, agg.CallsPerSecond(), "calls/s")
	return v.WithDetail("%d calls across %d workers in %s", agg.TotalCalls, agg.Workers, agg.Elapsed.Round(time.Millisecond))
}
