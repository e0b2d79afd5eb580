// Package clocksource exposes the fast-path and syscall-path time reads
// behind one signature so the harness can time and compare them.
package clocksource

import (
	"errors"
	"fmt"
	"strings"

	harnesserr "vdsobench/internal/errors"
)

// ClockID identifies a kernel clock. Values follow the Linux numbering.
type ClockID int32

const (
	Realtime        ClockID = 0
	Monotonic       ClockID = 1
	MonotonicRaw    ClockID = 4
	RealtimeCoarse  ClockID = 5
	MonotonicCoarse ClockID = 6
	Boottime        ClockID = 7
)

// Standard lists the clocks the harness knows how to exercise.
var Standard = []ClockID{Realtime, Monotonic, Boottime, MonotonicRaw, RealtimeCoarse, MonotonicCoarse}

var clockNames = map[ClockID]string{
	Realtime:        "realtime",
	Monotonic:       "monotonic",
	MonotonicRaw:    "monotonic_raw",
	RealtimeCoarse:  "realtime_coarse",
	MonotonicCoarse: "monotonic_coarse",
	Boottime:        "boottime",
}

func (c ClockID) String() string {
	if name, ok := clockNames[c]; ok {
		return name
	}
	return fmt.Sprintf("clock(%d)", int32(c))
}

// WallClock reports whether c tracks calendar time.
func (c ClockID) WallClock() bool {
	return c == Realtime || c == RealtimeCoarse
}

// ParseClock accepts names like "monotonic", "CLOCK_BOOTTIME" or "realtime-coarse".
func ParseClock(s string) (ClockID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "clock_")
	name = strings.ReplaceAll(name, "-", "_")
	for id, n := range clockNames {
		if n == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown clock %q: %w", s, harnesserr.ErrConfiguration)
}

// Timestamp is a (seconds, nanoseconds) pair with 0 <= Nsec < 1e9.
type Timestamp struct {
	Sec  int64 `json:"sec"`
	Nsec int64 `json:"nsec"`
}

// FromNanos splits a nanosecond count into a Timestamp.
func FromNanos(ns int64) Timestamp {
	return Timestamp{Sec: ns / 1e9, Nsec: ns % 1e9}
}

// Nanos returns the total nanoseconds.
func (t Timestamp) Nanos() int64 {
	return t.Sec*1e9 + t.Nsec
}

// Sub returns t-u in nanoseconds.
func (t Timestamp) Sub(u Timestamp) int64 {
	return (t.Sec-u.Sec)*1e9 + (t.Nsec - u.Nsec)
}

// Valid reports whether the nanosecond field is in range.
func (t Timestamp) Valid() bool {
	return t.Nsec >= 0 && t.Nsec < 1e9
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%09d", t.Sec, t.Nsec)
}

// Source produces a timestamp for a clock id.
type Source interface {
	Name() string
	Now(clock ClockID) (Timestamp, error)
	Supports(clock ClockID) bool
}

// ErrUnsupportedClock is returned for clock ids a source cannot read.
var ErrUnsupportedClock = errors.New("clock not supported by source")

// ReadError carries the failure of a single read. Err is the opaque status
// from the underlying call (usually a syscall.Errno).
type ReadError struct {
	Source string
	Clock  ClockID
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: read %s: %v", e.Source, e.Clock, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is lets callers match any read failure against the adapter error kind.
func (e *ReadError) Is(target error) bool {
	return target == harnesserr.ErrAdapter
}

// Clocks returns the standard clocks src supports.
func Clocks(src Source) []ClockID {
	var ids []ClockID
	for _, id := range Standard {
		if src.Supports(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// FuncSource adapts a function to Source. Every clock is reported as supported.
type FuncSource struct {
	Label string
	Fn    func(ClockID) (Timestamp, error)
}

func (f FuncSource) Name() string { return f.Label }

func (f FuncSource) Now(clock ClockID) (Timestamp, error) {
	ts, err := f.Fn(clock)
	if err != nil {
		var re *ReadError
		if errors.As(err, &re) {
			return Timestamp{}, err
		}
		return Timestamp{}, &ReadError{Source: f.Label, Clock: clock, Err: err}
	}
	return ts, nil
}

func (f FuncSource) Supports(ClockID) bool { return true }
