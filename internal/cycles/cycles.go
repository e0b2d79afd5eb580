// Package cycles reads the processor's monotonic tick counter.
//
// Each supported architecture has its own implementation file; everything
// else falls back to a nanosecond counter derived from the monotonic clock.
package cycles

import "time"

// Counter is a monotonic tick source used to bracket a single call.
type Counter interface {
	// Read returns the current tick value.
	Read() uint64
	// Name identifies the underlying register or fallback.
	Name() string
	// Native reports whether Read is backed by a hardware register.
	Native() bool
}

// Nominal is implemented by counters whose tick rate is known up front
// (e.g. the architected arm64 timer).
type Nominal interface {
	NominalHz() uint64
}

// New returns the counter for the running architecture.
func New() Counter {
	return native()
}

// Delta returns end-start, or 0 when the counter went backwards
// (cross-core skew on a migrated thread).
func Delta(start, end uint64) uint64 {
	if end < start {
		return 0
	}
	return end - start
}

// monotonicCounter is the fallback when no native register is available.
// Resolution is whatever the runtime monotonic clock provides, usually far
// coarser than a cycle, so very fast calls may measure as zero ticks.
type monotonicCounter struct {
	epoch time.Time
}

// NewMonotonic returns a counter that ticks in nanoseconds since its creation.
func NewMonotonic() Counter {
	return &monotonicCounter{epoch: time.Now()}
}

func (m *monotonicCounter) Read() uint64 {
	return uint64(time.Since(m.epoch).Nanoseconds())
}

func (m *monotonicCounter) Name() string { return "monotonic-ns" }

func (m *monotonicCounter) Native() bool { return false }

func (m *monotonicCounter) NominalHz() uint64 { return 1_000_000_000 }
