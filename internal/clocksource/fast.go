package clocksource

import (
	"time"
	_ "unsafe" // Required for go:linkname
)

// nanotime is the runtime's monotonic clock. On Linux it reads
// CLOCK_MONOTONIC through the vDSO without entering the kernel.
//
//go:linkname nanotime runtime.nanotime
func nanotime() int64

const (
	FastName    = "fast"
	SyscallName = "syscall"
)

type fastSource struct{}

// Fast returns the fast-path source. Monotonic and realtime reads go through
// the Go runtime's vDSO calls; other clocks go through libc clock_gettime
// (itself vDSO-backed) when the binary is built with cgo.
func Fast() Source { return fastSource{} }

func (fastSource) Name() string { return FastName }

func (fastSource) Now(clock ClockID) (Timestamp, error) {
	switch clock {
	case Monotonic:
		return FromNanos(nanotime()), nil
	case Realtime:
		now := time.Now()
		return Timestamp{Sec: now.Unix(), Nsec: int64(now.Nanosecond())}, nil
	}
	if !libcAvailable {
		return Timestamp{}, &ReadError{Source: FastName, Clock: clock, Err: ErrUnsupportedClock}
	}
	ts, err := libcClockGettime(clock)
	if err != nil {
		return Timestamp{}, &ReadError{Source: FastName, Clock: clock, Err: err}
	}
	return ts, nil
}

func (fastSource) Supports(clock ClockID) bool {
	if clock == Monotonic || clock == Realtime {
		return true
	}
	return libcAvailable
}
