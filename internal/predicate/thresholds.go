package predicate

import (
	"fmt"
	"strings"
	"time"

	harnesserr "vdsobench/internal/errors"
)

// ErrInvalidThresholds is returned when a threshold set cannot be used.
var ErrInvalidThresholds = fmt.Errorf("invalid thresholds: %w", harnesserr.ErrConfiguration)

// Thresholds holds every sample count and pass bound used by the catalog.
type Thresholds struct {
	// Functional
	MonotonicReads int           `mapstructure:"monotonic_reads" yaml:"monotonic_reads"`
	MonotonicPause time.Duration `mapstructure:"monotonic_pause" yaml:"monotonic_pause"`
	StrictReads    int           `mapstructure:"strict_reads" yaml:"strict_reads"`
	AdvanceSleep   time.Duration `mapstructure:"advance_sleep" yaml:"advance_sleep"`
	AgreementMaxNs int64         `mapstructure:"agreement_max_ns" yaml:"agreement_max_ns"`

	// Performance
	LatencySamples       int     `mapstructure:"latency_samples" yaml:"latency_samples"`
	LatencyWarmup        int     `mapstructure:"latency_warmup" yaml:"latency_warmup"`
	LatencyMaxCycles     uint64  `mapstructure:"latency_max_cycles" yaml:"latency_max_cycles"`
	ThroughputIterations []int   `mapstructure:"throughput_iterations" yaml:"throughput_iterations"`
	ThroughputWarmup     int     `mapstructure:"throughput_warmup" yaml:"throughput_warmup"`
	ThroughputMaxCycles  float64 `mapstructure:"throughput_max_cycles" yaml:"throughput_max_cycles"`
	ThroughputBaseline   float64 `mapstructure:"throughput_baseline_cycles" yaml:"throughput_baseline_cycles"`
	PairedIterations     int     `mapstructure:"paired_iterations" yaml:"paired_iterations"`
	PairedWork           int     `mapstructure:"paired_work" yaml:"paired_work"`
	PairedBaselineCycles float64 `mapstructure:"paired_baseline_cycles" yaml:"paired_baseline_cycles"`
	PairedMinSpeedup     float64 `mapstructure:"paired_min_speedup" yaml:"paired_min_speedup"`
	CacheHitSamples      int     `mapstructure:"cache_hit_samples" yaml:"cache_hit_samples"`
	CacheHitMaxCycles    uint64  `mapstructure:"cache_hit_max_cycles" yaml:"cache_hit_max_cycles"`
	CacheHitMinRate      float64 `mapstructure:"cache_hit_min_rate" yaml:"cache_hit_min_rate"`

	// Accuracy
	SweepSamples          int           `mapstructure:"sweep_samples" yaml:"sweep_samples"`
	NegativeIntervalReads int           `mapstructure:"negative_interval_reads" yaml:"negative_interval_reads"`
	SleepInterval         time.Duration `mapstructure:"sleep_interval" yaml:"sleep_interval"`
	SleepMinErrPct        float64       `mapstructure:"sleep_min_err_pct" yaml:"sleep_min_err_pct"`
	SleepMaxErrPct        float64       `mapstructure:"sleep_max_err_pct" yaml:"sleep_max_err_pct"`
	JitterReads           int           `mapstructure:"jitter_reads" yaml:"jitter_reads"`
	JitterMaxCycles       uint64        `mapstructure:"jitter_max_cycles" yaml:"jitter_max_cycles"`
}

// DefaultThresholds returns the stock catalog bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MonotonicReads: 10000,
		MonotonicPause: time.Microsecond,
		StrictReads:    10000,
		AdvanceSleep:   10 * time.Millisecond,
		AgreementMaxNs: 1000,

		LatencySamples:       1000,
		LatencyWarmup:        10000,
		LatencyMaxCycles:     100,
		ThroughputIterations: []int{1_000_000, 100_000, 10_000},
		ThroughputWarmup:     10000,
		ThroughputMaxCycles:  100,
		ThroughputBaseline:   250,
		PairedIterations:     10000,
		PairedWork:           100,
		PairedBaselineCycles: 500,
		PairedMinSpeedup:     3.0,
		CacheHitSamples:      10000,
		CacheHitMaxCycles:    100,
		CacheHitMinRate:      0.5,

		SweepSamples:          1000,
		NegativeIntervalReads: 10000,
		SleepInterval:         10 * time.Millisecond,
		SleepMinErrPct:        -10,
		SleepMaxErrPct:        50,
		JitterReads:           100,
		JitterMaxCycles:       100,
	}
}

// Quick returns t with sample counts cut down for a fast smoke run.
// Pass bounds are unchanged.
func (t Thresholds) Quick() Thresholds {
	q := t
	q.MonotonicReads = min(q.MonotonicReads, 1000)
	q.StrictReads = min(q.StrictReads, 1000)
	q.LatencyWarmup = min(q.LatencyWarmup, 1000)
	q.ThroughputIterations = []int{10_000}
	q.ThroughputWarmup = min(q.ThroughputWarmup, 1000)
	q.PairedIterations = min(q.PairedIterations, 1000)
	q.CacheHitSamples = min(q.CacheHitSamples, 1000)
	q.SweepSamples = min(q.SweepSamples, 100)
	q.NegativeIntervalReads = min(q.NegativeIntervalReads, 1000)
	return q
}

// Validate reports every unusable field at once.
func (t Thresholds) Validate() error {
	var problems []string
	positive := func(name string, v int) {
		if v < 1 {
			problems = append(problems, fmt.Sprintf("%s must be >= 1, got %d", name, v))
		}
	}
	nonNegative := func(name string, v int) {
		if v < 0 {
			problems = append(problems, fmt.Sprintf("%s must be >= 0, got %d", name, v))
		}
	}

	positive("monotonic_reads", t.MonotonicReads)
	positive("strict_reads", t.StrictReads)
	positive("latency_samples", t.LatencySamples)
	nonNegative("latency_warmup", t.LatencyWarmup)
	nonNegative("throughput_warmup", t.ThroughputWarmup)
	positive("paired_iterations", t.PairedIterations)
	nonNegative("paired_work", t.PairedWork)
	positive("cache_hit_samples", t.CacheHitSamples)
	positive("sweep_samples", t.SweepSamples)
	positive("negative_interval_reads", t.NegativeIntervalReads)
	positive("jitter_reads", t.JitterReads)

	if t.MonotonicPause < 0 {
		problems = append(problems, "monotonic_pause must not be negative")
	}
	if t.AdvanceSleep <= 0 {
		problems = append(problems, "advance_sleep must be positive")
	}
	if t.SleepInterval <= 0 {
		problems = append(problems, "sleep_interval must be positive")
	}
	if t.AgreementMaxNs <= 0 {
		problems = append(problems, "agreement_max_ns must be positive")
	}
	if len(t.ThroughputIterations) == 0 {
		problems = append(problems, "throughput_iterations must not be empty")
	}
	for _, n := range t.ThroughputIterations {
		positive("throughput_iterations entry", n)
	}
	if t.ThroughputMaxCycles <= 0 || t.ThroughputBaseline <= 0 {
		problems = append(problems, "throughput cycle bounds must be positive")
	}
	if t.LatencyMaxCycles == 0 || t.CacheHitMaxCycles == 0 || t.JitterMaxCycles == 0 {
		problems = append(problems, "cycle bounds must be positive")
	}
	if t.PairedBaselineCycles <= 0 || t.PairedMinSpeedup <= 0 {
		problems = append(problems, "paired-read baseline and speedup must be positive")
	}
	if t.CacheHitMinRate <= 0 || t.CacheHitMinRate > 1 {
		problems = append(problems, fmt.Sprintf("cache_hit_min_rate must be in (0, 1], got %g", t.CacheHitMinRate))
	}
	if t.SleepMinErrPct >= t.SleepMaxErrPct {
		problems = append(problems, fmt.Sprintf("sleep error window [%g, %g] is empty", t.SleepMinErrPct, t.SleepMaxErrPct))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidThresholds, strings.Join(problems, "; "))
	}
	return nil
}
