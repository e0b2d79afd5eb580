package predicate

import (
	"context"
	"slices"
	"time"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/report"
)

func agreementSweep(ctx context.Context, h *Harness) Verdict {
	if h.Syscall == nil || !h.Syscall.Supports(h.Clock) {
		return report.Skip("", report.Accuracy, "syscall path unavailable")
	}
	n := h.Thresholds.SweepSamples
	var worst, total int64
	for i := 0; i < n; i++ {
		if i&255 == 0 && ctx.Err() != nil {
			return report.Fail("", report.Accuracy, ctx.Err())
		}
		d, err := agreement(h)
		if err != nil {
			return report.Fail("", report.Accuracy, err)
		}
		worst = max(worst, d)
		total += d
	}
	return report.Check("", report.Accuracy, worst < h.Thresholds.AgreementMaxNs, float64(worst), "ns").
		WithDetail("max %d ns, avg %.1f ns over %d pairs", worst, float64(total)/float64(n), n)
}

func noNegativeIntervals(ctx context.Context, h *Harness) Verdict {
	n := h.Thresholds.NegativeIntervalReads
	prev, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Accuracy, err)
	}
	negative := 0
	for i := 0; i < n; i++ {
		if i&1023 == 0 && ctx.Err() != nil {
			return report.Fail("", report.Accuracy, ctx.Err())
		}
		curr, err := h.Fast.Now(h.Clock)
		if err != nil {
			return report.Fail("", report.Accuracy, err)
		}
		if curr.Sub(prev) < 0 {
			negative++
		}
		prev = curr
	}
	return report.Check("", report.Accuracy, negative == 0, float64(negative), "count").
		WithDetail("%d negative intervals in %d reads", negative, n)
}

func sleepAccuracy(_ context.Context, h *Harness) Verdict {
	th := h.Thresholds
	t1, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Accuracy, err)
	}
	h.Sleep(th.SleepInterval)
	t2, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Accuracy, err)
	}
	slept := t2.Sub(t1)
	want := th.SleepInterval.Nanoseconds()
	errPct := float64(slept-want) / float64(want) * 100
	ok := errPct >= th.SleepMinErrPct && errPct <= th.SleepMaxErrPct
	return report.Check("", report.Accuracy, ok, errPct, "%").
		WithDetail("slept %s for a %s request", time.Duration(slept), th.SleepInterval)
}

func readJitter(ctx context.Context, h *Harness) Verdict {
	th := h.Thresholds
	samples, err := h.Runner.Collect(ctx, h.Fast, benchmark.Config{
		Iterations: th.JitterReads,
		Clock:      h.Clock,
	})
	if err != nil {
		return report.Fail("", report.Accuracy, err)
	}
	res := benchmark.Summarize("read-jitter", samples, 0)
	worst := slices.Max(samples)
	return report.Check("", report.Accuracy, worst < th.JitterMaxCycles, float64(worst), "cycles").
		WithDetail("max %d, avg %.1f cycles over %d rapid reads", worst, res.AvgCycles, len(samples))
}
