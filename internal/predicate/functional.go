package predicate

import (
	"context"
	"fmt"
	"time"

	"vdsobench/internal/clocksource"
	"vdsobench/internal/report"
)

func basicRead(_ context.Context, h *Harness) Verdict {
	ts, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Functional, err)
	}
	ok := ts.Valid() && ts.Sec >= 0
	return report.Check("", report.Functional, ok, float64(ts.Nanos()), "ns").
		WithDetail("%s read %s", h.Clock, ts)
}

func monotonicity(ctx context.Context, h *Harness) Verdict {
	n := h.Thresholds.MonotonicReads
	prev, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Functional, err)
	}
	for i := 0; i < n; i++ {
		if i&1023 == 0 && ctx.Err() != nil {
			return report.Fail("", report.Functional, ctx.Err())
		}
		curr, err := h.Fast.Now(h.Clock)
		if err != nil {
			return report.Fail("", report.Functional, err)
		}
		if curr.Sub(prev) < 0 {
			return report.Check("", report.Functional, false, float64(i), "calls").
				WithDetail("went backwards at call %d: %s -> %s", i, prev, curr)
		}
		prev = curr
		spinFor(h.Thresholds.MonotonicPause)
	}
	return report.Pass("", report.Functional, float64(n), "calls").
		WithDetail("%d paced reads non-decreasing", n)
}

func strictMonotonicity(ctx context.Context, h *Harness) Verdict {
	n := h.Thresholds.StrictReads
	prev, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Functional, err)
	}
	repeats := 0
	for i := 0; i < n; i++ {
		if i&1023 == 0 && ctx.Err() != nil {
			return report.Fail("", report.Functional, ctx.Err())
		}
		curr, err := h.Fast.Now(h.Clock)
		if err != nil {
			return report.Fail("", report.Functional, err)
		}
		if curr.Sub(prev) <= 0 {
			repeats++
		}
		prev = curr
	}
	return report.Check("", report.Functional, repeats == 0, float64(repeats), "repeats").
		WithDetail("%d of %d back-to-back reads did not advance", repeats, n)
}

func multiClock(_ context.Context, h *Harness) Verdict {
	clocks := clocksource.Clocks(h.Fast)
	if len(clocks) == 0 {
		return report.Fail("", report.Functional, fmt.Errorf("%s supports no clocks: %w", h.Fast.Name(), clocksource.ErrUnsupportedClock))
	}
	for _, c := range clocks {
		ts, err := h.Fast.Now(c)
		if err != nil {
			return report.Fail("", report.Functional, err)
		}
		if !ts.Valid() || ts.Sec < 0 {
			return report.Check("", report.Functional, false, 0, "clocks").
				WithDetail("%s returned %s", c, ts)
		}
		if c.WallClock() && ts.Sec <= 0 {
			return report.Check("", report.Functional, false, 0, "clocks").
				WithDetail("wall clock %s is not past the epoch: %s", c, ts)
		}
	}
	return report.Pass("", report.Functional, float64(len(clocks)), "clocks").
		WithDetail("%v", clocks)
}

func timeAdvances(_ context.Context, h *Harness) Verdict {
	want := h.Thresholds.AdvanceSleep
	t1, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Functional, err)
	}
	h.Sleep(want)
	t2, err := h.Fast.Now(h.Clock)
	if err != nil {
		return report.Fail("", report.Functional, err)
	}
	got := time.Duration(t2.Sub(t1))
	return report.Check("", report.Functional, got >= want, float64(got.Nanoseconds()), "ns").
		WithDetail("slept %s, clock advanced %s", want, got)
}

func syscallAgreement(_ context.Context, h *Harness) Verdict {
	if h.Syscall == nil || !h.Syscall.Supports(h.Clock) {
		return report.Skip("", report.Functional, "syscall path unavailable")
	}
	diff, err := agreement(h)
	if err != nil {
		return report.Fail("", report.Functional, err)
	}
	return report.Check("", report.Functional, diff < h.Thresholds.AgreementMaxNs, float64(diff), "ns").
		WithDetail("|fast - syscall| = %d ns (limit %d ns)", diff, h.Thresholds.AgreementMaxNs)
}

// agreement reads fast then syscall back to back and returns |difference|.
func agreement(h *Harness) (int64, error) {
	fast, err := h.Fast.Now(h.Clock)
	if err != nil {
		return 0, err
	}
	sys, err := h.Syscall.Now(h.Clock)
	if err != nil {
		return 0, err
	}
	d := fast.Sub(sys)
	if d < 0 {
		d = -d
	}
	return d, nil
}
