package errors

import (
	"context"
	"errors"
)

// Base errors for the harness failure taxonomy. Domain packages wrap one of
// these so callers can decide how a failure propagates without importing
// every package that can produce it.
var (
	// ErrAdapter marks a failed time-source read.
	ErrAdapter = errors.New("time source read failed")
	// ErrConfiguration marks invalid iterations, thresholds or settings.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInstrumentation marks unavailable host instrumentation.
	ErrInstrumentation = errors.New("instrumentation unavailable")
	// ErrConcurrency marks a worker that failed to join or exit cleanly.
	ErrConcurrency = errors.New("concurrency failure")
)

// Kind classifies an error.
type Kind int

const (
	KindNone Kind = iota
	KindAdapter
	KindConfiguration
	KindInstrumentation
	KindConcurrency
	KindCanceled
	KindUnknown
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAdapter:
		return "adapter"
	case KindConfiguration:
		return "configuration"
	case KindInstrumentation:
		return "instrumentation"
	case KindConcurrency:
		return "concurrency"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify maps err onto the taxonomy.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrAdapter):
		return KindAdapter
	case errors.Is(err, ErrConcurrency):
		return KindConcurrency
	case errors.Is(err, ErrInstrumentation):
		return KindInstrumentation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
