// Package stress drives a time source under sustained, multi-thread and
// multi-process load and reports whether every worker stayed healthy.
package stress

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle of a Token. It only moves forward.
type State int32

const (
	Running State = iota
	StopRequested
	Drained
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case StopRequested:
		return "stop-requested"
	case Drained:
		return "drained"
	default:
		return "unknown"
	}
}

// Token is a cooperative stop signal shared by every worker of a scenario.
// Workers poll Stopped on each iteration; it is a single atomic load.
type Token struct {
	state   atomic.Int32
	done    chan struct{}
	release func()
	once    sync.Once
}

// NewToken returns a running token with no deadline.
func NewToken() *Token {
	return &Token{done: make(chan struct{}), release: func() {}}
}

// NewDeadlineToken returns a token stopped by a timer after d, or earlier
// when ctx ends.
func NewDeadlineToken(ctx context.Context, d time.Duration) *Token {
	t := NewToken()
	timer := time.AfterFunc(d, t.Stop)
	stopAfter := context.AfterFunc(ctx, t.Stop)
	t.release = func() {
		timer.Stop()
		stopAfter()
	}
	return t
}

// Stop requests every worker to finish. Only the first call has an effect.
func (t *Token) Stop() {
	if t.state.CompareAndSwap(int32(Running), int32(StopRequested)) {
		close(t.done)
	}
}

// Stopped reports whether a stop was requested.
func (t *Token) Stopped() bool {
	return State(t.state.Load()) != Running
}

// Done is closed once a stop is requested.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Drain records that every worker has observed the stop and exited.
// It stops the token first if nobody else has.
func (t *Token) Drain() {
	t.Stop()
	t.state.CompareAndSwap(int32(StopRequested), int32(Drained))
	t.once.Do(t.release)
}

// State returns the current state.
func (t *Token) State() State {
	return State(t.state.Load())
}
