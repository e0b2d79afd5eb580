package benchmark

import (
	"fmt"
	"time"

	"vdsobench/internal/clocksource"
	harnesserr "vdsobench/internal/errors"
)

var (
	// ErrInvalidConfig is returned before any call when a Config is unusable.
	ErrInvalidConfig = fmt.Errorf("invalid benchmark config: %w", harnesserr.ErrConfiguration)
	// ErrZeroAverage is returned when a comparison would divide by zero.
	ErrZeroAverage = fmt.Errorf("average cycles is zero: %w", harnesserr.ErrConfiguration)
)

// Config controls one benchmark invocation. Warmup and Iterations are
// counted separately and never mixed.
type Config struct {
	Iterations int                 `json:"iterations"`
	Warmup     int                 `json:"warmup"`
	Label      string              `json:"label"`
	Clock      clocksource.ClockID `json:"clock"`
}

// Validate rejects configurations that cannot produce a result.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations must be >= 1, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("%w: warmup must be >= 0, got %d", ErrInvalidConfig, c.Warmup)
	}
	return nil
}

// Result represents the statistics of one benchmark invocation.
type Result struct {
	Label        string  `json:"label"`
	Source       string  `json:"source"`
	Counter      string  `json:"counter"`
	Clock        string  `json:"clock,omitempty"`
	Iterations   int     `json:"iterations"`
	TotalCycles  uint64  `json:"total_cycles"`
	MinCycles    uint64  `json:"min_cycles"`
	MaxCycles    uint64  `json:"max_cycles"`
	AvgCycles    float64 `json:"avg_cycles"`
	MedianCycles float64 `json:"median_cycles"`
	P99Cycles    uint64  `json:"p99_cycles"`
	CallsPerSec  float64 `json:"calls_per_sec"` // 0 when the frequency is unknown
}

// HostInfo describes the machine a run was recorded on.
type HostInfo struct {
	Kernel   string `json:"kernel,omitempty"`
	Arch     string `json:"arch"`
	CPUModel string `json:"cpu_model,omitempty"`
	Counter  string `json:"counter"`
}

// Run represents a collection of benchmark results from a single execution.
type Run struct {
	Timestamp time.Time `json:"timestamp"`
	Host      HostInfo  `json:"host"`
	Results   []Result  `json:"results"`
}

// Find returns the result with the given label.
func (r Run) Find(label string) (Result, bool) {
	for _, res := range r.Results {
		if res.Label == label {
			return res, true
		}
	}
	return Result{}, false
}
