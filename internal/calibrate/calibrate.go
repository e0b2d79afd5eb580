// Package calibrate converts counter ticks into wall-clock units.
//
// Calibration is advisory: it only feeds reporting (calls per second,
// nanosecond estimates) and never decides whether a check passes.
package calibrate

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/procfs/sysfs"

	"vdsobench/internal/cycles"
	harnesserr "vdsobench/internal/errors"
)

// Calibrator reports the tick frequency in Hz, or false when unknown.
type Calibrator interface {
	FrequencyHz() (float64, bool)
}

// Func adapts a function to Calibrator.
type Func func() (float64, bool)

func (f Func) FrequencyHz() (float64, bool) { return f() }

// Unknown never knows the frequency.
var Unknown Calibrator = Func(func() (float64, bool) { return 0, false })

// Host reads the current scaling frequency reported by cpufreq in sysfs.
type Host struct {
	fs  sysfs.FS
	err error
}

// NewHost returns a Host reading from the sysfs mounted at mountPoint.
// An unusable mount point is not an error here; FrequencyHz reports unknown.
func NewHost(mountPoint string) *Host {
	if mountPoint == "" {
		mountPoint = sysfs.DefaultMountPoint
	}
	fs, err := sysfs.NewFS(mountPoint)
	return &Host{fs: fs, err: err}
}

func (h *Host) FrequencyHz() (float64, bool) {
	hz, err := h.Read()
	if err != nil {
		slog.Debug("cpufreq unavailable", "error", err)
		return 0, false
	}
	return hz, true
}

// Read returns the first non-zero scaling frequency in Hz, falling back to
// cpuinfo_cur_freq. Failures wrap ErrInstrumentation.
func (h *Host) Read() (float64, error) {
	if h.err != nil {
		return 0, fmt.Errorf("%w: %w", harnesserr.ErrInstrumentation, h.err)
	}
	stats, err := h.fs.SystemCpufreq()
	if err != nil {
		return 0, fmt.Errorf("%w: read cpufreq: %w", harnesserr.ErrInstrumentation, err)
	}
	for _, s := range stats {
		if s.ScalingCurrentFrequency != nil && *s.ScalingCurrentFrequency > 0 {
			return float64(*s.ScalingCurrentFrequency) * 1000, nil
		}
	}
	for _, s := range stats {
		if s.CpuinfoCurrentFrequency != nil && *s.CpuinfoCurrentFrequency > 0 {
			return float64(*s.CpuinfoCurrentFrequency) * 1000, nil
		}
	}
	return 0, fmt.Errorf("%w: no cpu reports a current frequency", harnesserr.ErrInstrumentation)
}

// Nominal uses the counter's architected rate when it has one.
type Nominal struct {
	Counter cycles.Counter
}

func (n Nominal) FrequencyHz() (float64, bool) {
	nc, ok := n.Counter.(cycles.Nominal)
	if !ok {
		return 0, false
	}
	hz := nc.NominalHz()
	return float64(hz), hz > 0
}

// Self times a sleep against both the monotonic clock and the counter.
type Self struct {
	Counter  cycles.Counter
	Interval time.Duration
	Sleep    func(time.Duration)
}

// DefaultInterval is the sleep used by Self when Interval is zero.
const DefaultInterval = 10 * time.Millisecond

func (s Self) FrequencyHz() (float64, bool) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	start := time.Now()
	c1 := s.Counter.Read()
	sleep(interval)
	elapsed := time.Since(start)
	c2 := s.Counter.Read()

	ticks := cycles.Delta(c1, c2)
	if ticks == 0 || elapsed <= 0 {
		return 0, false
	}
	return float64(ticks) / elapsed.Seconds(), true
}

// Chain returns the first known answer.
type Chain []Calibrator

func (c Chain) FrequencyHz() (float64, bool) {
	for _, cal := range c {
		if hz, ok := cal.FrequencyHz(); ok {
			return hz, true
		}
	}
	return 0, false
}

// Default is the production order: the counter's architected rate, then
// the frequency cpufreq reports under sysfsRoot, then self-calibration.
// An empty sysfsRoot means the default mount point.
func Default(c cycles.Counter, sysfsRoot string) Chain {
	return Chain{
		Nominal{Counter: c},
		NewHost(sysfsRoot),
		Self{Counter: c},
	}
}

// Once caches the first answer of c, known or not.
func Once(c Calibrator) Calibrator {
	var (
		once  sync.Once
		hz    float64
		known bool
	)
	return Func(func() (float64, bool) {
		once.Do(func() { hz, known = c.FrequencyHz() })
		return hz, known
	})
}

// CyclesToNanos converts a tick count to nanoseconds at hz.
func CyclesToNanos(ticks, hz float64) float64 {
	if hz <= 0 {
		return 0
	}
	return ticks / hz * 1e9
}

// CallsPerSecond converts an average tick cost to a call rate at hz.
func CallsPerSecond(avgTicks, hz float64) float64 {
	if hz <= 0 || avgTicks <= 0 {
		return 0
	}
	return hz / avgTicks
}
