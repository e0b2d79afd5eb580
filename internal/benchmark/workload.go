package benchmark

import (
	"context"
	"fmt"

	"vdsobench/internal/clocksource"
	"vdsobench/internal/cycles"
)

var spinSink uint64

// Spin performs n rounds of integer work the compiler cannot drop.
func Spin(n int) {
	x := spinSink | 1
	for i := 0; i < n; i++ {
		x = x*6364136223846793005 + 1442695040888963407
	}
	spinSink = x
}

// PairedRead models a caller that timestamps both ends of a short unit of
// work: two reads of clock around Spin(work). It returns the average ticks
// per pair, work included.
func PairedRead(ctx context.Context, src clocksource.Source, counter cycles.Counter, clock clocksource.ClockID, iterations, work int) (float64, error) {
	if iterations < 1 {
		return 0, fmt.Errorf("%w: iterations must be >= 1, got %d", ErrInvalidConfig, iterations)
	}
	if work < 0 {
		return 0, fmt.Errorf("%w: work must be >= 0, got %d", ErrInvalidConfig, work)
	}

	var total uint64
	for i := 0; i < iterations; i++ {
		if i&ctxCheckMask == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		start := counter.Read()
		if _, err := src.Now(clock); err != nil {
			return 0, fmt.Errorf("pair %d: %w", i, err)
		}
		Spin(work)
		if _, err := src.Now(clock); err != nil {
			return 0, fmt.Errorf("pair %d: %w", i, err)
		}
		total += cycles.Delta(start, counter.Read())
	}
	return float64(total) / float64(iterations), nil
}
