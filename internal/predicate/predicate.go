// Package predicate defines the pass/fail checks run against the fast-path
// time source and the suite that runs them in order.
package predicate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/calibrate"
	"vdsobench/internal/clocksource"
	"vdsobench/internal/cycles"
	harnesserr "vdsobench/internal/errors"
	"vdsobench/internal/report"
)

// Verdict is the outcome of one predicate.
type Verdict = report.Verdict

// Harness bundles everything a predicate may touch.
type Harness struct {
	Fast       clocksource.Source
	Syscall    clocksource.Source // nil disables the agreement checks
	Runner     *benchmark.Runner
	Counter    cycles.Counter
	Calibrator calibrate.Calibrator
	Thresholds Thresholds
	Clock      clocksource.ClockID
	Sleep      func(time.Duration)
}

// NewHarness validates th and wires a Runner around counter and cal.
func NewHarness(fast, syscall clocksource.Source, counter cycles.Counter, cal calibrate.Calibrator, th Thresholds) (*Harness, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	if fast == nil {
		return nil, fmt.Errorf("fast source is required: %w", harnesserr.ErrConfiguration)
	}
	runner := benchmark.NewRunner(counter, cal)
	return &Harness{
		Fast:       fast,
		Syscall:    syscall,
		Runner:     runner,
		Counter:    runner.Counter,
		Calibrator: runner.Calibrator,
		Thresholds: th,
		Clock:      clocksource.Monotonic,
		Sleep:      time.Sleep,
	}, nil
}

// Predicate is one named check.
type Predicate struct {
	Name     string
	Category report.Category
	Check    func(ctx context.Context, h *Harness) Verdict
}

// Catalog returns the functional, performance and accuracy checks in run
// order. Throughput yields one predicate per configured iteration count.
func Catalog(th Thresholds) []Predicate {
	preds := []Predicate{
		{Name: "basic-read", Category: report.Functional, Check: basicRead},
		{Name: "monotonicity", Category: report.Functional, Check: monotonicity},
		{Name: "strict-monotonicity", Category: report.Functional, Check: strictMonotonicity},
		{Name: "multi-clock", Category: report.Functional, Check: multiClock},
		{Name: "time-advances", Category: report.Functional, Check: timeAdvances},
		{Name: "syscall-agreement", Category: report.Functional, Check: syscallAgreement},
		{Name: "single-call-latency", Category: report.Performance, Check: singleCallLatency},
	}
	for _, n := range th.ThroughputIterations {
		preds = append(preds, Predicate{
			Name:     fmt.Sprintf("throughput-%d", n),
			Category: report.Performance,
			Check:    throughput(n),
		})
	}
	preds = append(preds,
		Predicate{Name: "paired-read", Category: report.Performance, Check: pairedRead},
		Predicate{Name: "cache-hit-rate-estimate", Category: report.Performance, Check: cacheHitRate},
		Predicate{Name: "syscall-agreement-sweep", Category: report.Accuracy, Check: agreementSweep},
		Predicate{Name: "no-negative-intervals", Category: report.Accuracy, Check: noNegativeIntervals},
		Predicate{Name: "sleep-accuracy", Category: report.Accuracy, Check: sleepAccuracy},
		Predicate{Name: "read-jitter", Category: report.Accuracy, Check: readJitter},
	)
	return preds
}

// Suite runs predicates in order and tallies every verdict.
type Suite struct {
	Harness    *Harness
	Predicates []Predicate
	// Skip maps a category to the reason its predicates are not run.
	Skip map[report.Category]string
	// Observer, when set, sees each verdict as soon as it is recorded.
	Observer func(Verdict)
}

// Run executes every predicate. A failing predicate never stops the run;
// only context cancellation does, and then the verdicts so far are returned
// with the context error.
func (s *Suite) Run(ctx context.Context, agg *report.Aggregator) ([]Verdict, error) {
	verdicts := make([]Verdict, 0, len(s.Predicates))
	for _, p := range s.Predicates {
		if err := ctx.Err(); err != nil {
			return verdicts, err
		}

		var v Verdict
		if reason, skip := s.Skip[p.Category]; skip {
			v = report.Skip(p.Name, p.Category, reason)
		} else {
			start := time.Now()
			v = p.Check(ctx, s.Harness)
			v.Name = p.Name
			v.Category = p.Category
			slog.Debug("predicate finished",
				"name", p.Name,
				"category", p.Category,
				"status", v.Status(),
				"value", v.Value,
				"elapsed", time.Since(start))
		}
		if v.Err != nil {
			slog.Warn("predicate failed", "name", p.Name, "error", v.Err)
		}

		agg.AddVerdict(v)
		verdicts = append(verdicts, v)
		if s.Observer != nil {
			s.Observer(v)
		}
	}
	return verdicts, nil
}

// spinFor busy-waits for d. Short pauses use this instead of time.Sleep,
// whose timer granularity would stretch a microsecond into far longer.
func spinFor(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// nanosDetail renders a tick count with a nanosecond estimate when the
// frequency is known.
func nanosDetail(h *Harness, ticks float64) string {
	hz, ok := h.Calibrator.FrequencyHz()
	if !ok {
		return fmt.Sprintf("%.0f %s ticks, frequency unknown", ticks, h.Counter.Name())
	}
	return fmt.Sprintf("%.0f %s ticks (~%.1f ns at %.0f MHz)", ticks, h.Counter.Name(), calibrate.CyclesToNanos(ticks, hz), hz/1e6)
}
