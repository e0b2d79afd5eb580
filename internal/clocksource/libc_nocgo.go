//go:build !linux || !cgo

package clocksource

const libcAvailable = false

func libcClockGettime(ClockID) (Timestamp, error) {
	return Timestamp{}, ErrUnsupportedClock
}
