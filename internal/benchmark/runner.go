package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"vdsobench/internal/calibrate"
	"vdsobench/internal/clocksource"
	"vdsobench/internal/cycles"
)

// ctxCheckMask sets how often the measurement loop looks at the context.
const ctxCheckMask = 4096 - 1

// Runner times calls to a clock source with a cycle counter.
type Runner struct {
	Counter    cycles.Counter
	Calibrator calibrate.Calibrator
}

// NewRunner returns a Runner. A nil calibrator means the frequency is unknown.
func NewRunner(counter cycles.Counter, cal calibrate.Calibrator) *Runner {
	if counter == nil {
		counter = cycles.New()
	}
	if cal == nil {
		cal = calibrate.Unknown
	}
	return &Runner{Counter: counter, Calibrator: cal}
}

// Collect runs cfg.Warmup unmeasured calls, then cfg.Iterations calls each
// bracketed by two counter reads, and returns the per-call tick deltas.
// A failed read at any point aborts the run.
func (r *Runner) Collect(ctx context.Context, src clocksource.Source, cfg Config) ([]uint64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := warmup(ctx, src, cfg); err != nil {
		return nil, err
	}

	samples := make([]uint64, cfg.Iterations)
	for i := range samples {
		if i&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		start := r.Counter.Read()
		_, err := src.Now(cfg.Clock)
		end := r.Counter.Read()
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", i, err)
		}
		samples[i] = cycles.Delta(start, end)
	}
	return samples, nil
}

// Run collects samples and summarizes them.
func (r *Runner) Run(ctx context.Context, src clocksource.Source, cfg Config) (Result, error) {
	samples, err := r.Collect(ctx, src, cfg)
	if err != nil {
		return Result{}, err
	}
	hz, _ := r.Calibrator.FrequencyHz()
	res := Summarize(cfg.Label, samples, hz)
	res.Source = src.Name()
	res.Counter = r.Counter.Name()
	res.Clock = cfg.Clock.String()

	slog.Debug("benchmark finished",
		"label", res.Label,
		"source", res.Source,
		"iterations", res.Iterations,
		"avg_cycles", res.AvgCycles,
		"min_cycles", res.MinCycles)
	return res, nil
}

// Throughput brackets the whole measurement loop with one pair of counter
// reads and reports the amortized cost per call. Only the average is
// meaningful; the other statistics repeat it.
func (r *Runner) Throughput(ctx context.Context, src clocksource.Source, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := warmup(ctx, src, cfg); err != nil {
		return Result{}, err
	}

	start := r.Counter.Read()
	for i := 0; i < cfg.Iterations; i++ {
		if i&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		if _, err := src.Now(cfg.Clock); err != nil {
			return Result{}, fmt.Errorf("iteration %d: %w", i, err)
		}
	}
	total := cycles.Delta(start, r.Counter.Read())

	avg := float64(total) / float64(cfg.Iterations)
	hz, _ := r.Calibrator.FrequencyHz()
	rounded := uint64(math.Round(avg))
	return Result{
		Label:        cfg.Label,
		Source:       src.Name(),
		Counter:      r.Counter.Name(),
		Clock:        cfg.Clock.String(),
		Iterations:   cfg.Iterations,
		TotalCycles:  total,
		MinCycles:    rounded,
		MaxCycles:    rounded,
		AvgCycles:    avg,
		MedianCycles: avg,
		P99Cycles:    rounded,
		CallsPerSec:  calibrate.CallsPerSecond(avg, hz),
	}, nil
}

func warmup(ctx context.Context, src clocksource.Source, cfg Config) error {
	for i := 0; i < cfg.Warmup; i++ {
		if i&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if _, err := src.Now(cfg.Clock); err != nil {
			return fmt.Errorf("warmup %d: %w", i, err)
		}
	}
	return nil
}

// Summarize computes the statistics of samples. hz <= 0 leaves CallsPerSec at 0.
func Summarize(label string, samples []uint64, hz float64) Result {
	res := Result{Label: label, Iterations: len(samples)}
	if len(samples) == 0 {
		return res
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	var total uint64
	for _, s := range sorted {
		total += s
	}
	n := len(sorted)
	res.TotalCycles = total
	res.MinCycles = sorted[0]
	res.MaxCycles = sorted[n-1]
	res.AvgCycles = float64(total) / float64(n)
	if n%2 == 1 {
		res.MedianCycles = float64(sorted[n/2])
	} else {
		res.MedianCycles = (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
	}
	res.P99Cycles = sorted[percentileIndex(n, 0.99)]
	res.CallsPerSec = calibrate.CallsPerSecond(res.AvgCycles, hz)
	return res
}

// percentileIndex is the nearest-rank index of p in n sorted values.
func percentileIndex(n int, p float64) int {
	idx := int(math.Ceil(p*float64(n))) - 1
	return max(0, min(idx, n-1))
}
