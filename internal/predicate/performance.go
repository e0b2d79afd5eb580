package predicate

import (
	"context"
	"fmt"
	"slices"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/report"
)

func singleCallLatency(ctx context.Context, h *Harness) Verdict {
	th := h.Thresholds
	samples, err := h.Runner.Collect(ctx, h.Fast, benchmark.Config{
		Iterations: th.LatencySamples,
		Warmup:     th.LatencyWarmup,
		Clock:      h.Clock,
	})
	if err != nil {
		return report.Fail("", report.Performance, err)
	}
	lowest := slices.Min(samples)
	return report.Check("", report.Performance, lowest < th.LatencyMaxCycles, float64(lowest), "cycles").
		WithDetail("min %s over %d calls (limit %d)", nanosDetail(h, float64(lowest)), th.LatencySamples, th.LatencyMaxCycles)
}

func throughput(iterations int) func(context.Context, *Harness) Verdict {
	return func(ctx context.Context, h *Harness) Verdict {
		th := h.Thresholds
		res, err := h.Runner.Throughput(ctx, h.Fast, benchmark.Config{
			Iterations: iterations,
			Warmup:     th.ThroughputWarmup,
			Label:      fmt.Sprintf("throughput-%d", iterations),
			Clock:      h.Clock,
		})
		if err != nil {
			return report.Fail("", report.Performance, err)
		}
		v := report.Check("", report.Performance, res.AvgCycles < th.ThroughputMaxCycles, res.AvgCycles, "cycles")
		if res.AvgCycles > 0 {
			return v.WithDetail("avg %.1f cycles/call, %.2fx vs %.0f-cycle baseline", res.AvgCycles, th.ThroughputBaseline/res.AvgCycles, th.ThroughputBaseline)
		}
		return v.WithDetail("avg below counter resolution")
	}
}

func pairedRead(ctx context.Context, h *Harness) Verdict {
	th := h.Thresholds
	avg, err := benchmark.PairedRead(ctx, h.Fast, h.Counter, h.Clock, th.PairedIterations, th.PairedWork)
	if err != nil {
		return report.Fail("", report.Performance, err)
	}
	if avg <= 0 {
		return report.Fail("", report.Performance, fmt.Errorf("paired read: %w", benchmark.ErrZeroAverage))
	}
	speedup := th.PairedBaselineCycles / avg
	return report.Check("", report.Performance, speedup >= th.PairedMinSpeedup, speedup, "x").
		WithDetail("avg %.1f cycles per pair vs %.0f-cycle baseline (need %.1fx)", avg, th.PairedBaselineCycles, th.PairedMinSpeedup)
}

// cacheHitRate treats any call under the cycle bound as a cache hit. The
// fast path exposes no hit counter, so this is an estimate.
func cacheHitRate(ctx context.Context, h *Harness) Verdict {
	th := h.Thresholds
	samples, err := h.Runner.Collect(ctx, h.Fast, benchmark.Config{
		Iterations: th.CacheHitSamples,
		Clock:      h.Clock,
	})
	if err != nil {
		return report.Fail("", report.Performance, err)
	}
	fast := 0
	for _, s := range samples {
		if s < th.CacheHitMaxCycles {
			fast++
		}
	}
	rate := float64(fast) / float64(len(samples))
	return report.Check("", report.Performance, rate >= th.CacheHitMinRate, rate*100, "%").
		WithDetail("heuristic: %d of %d calls under %d cycles counted as hits", fast, len(samples), th.CacheHitMaxCycles)
}
