package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"vdsobench/internal/clocksource"
	harnesserr "vdsobench/internal/errors"
)

var (
	// ErrJoinTimeout is returned when workers outlive the grace period.
	ErrJoinTimeout = fmt.Errorf("workers did not stop within grace period: %w", harnesserr.ErrConcurrency)
	// ErrChildFailed is returned for a child process that did not exit 0.
	ErrChildFailed = fmt.Errorf("worker process failed: %w", harnesserr.ErrConcurrency)
	// ErrInvalidSettings is returned for unusable scenario parameters.
	ErrInvalidSettings = fmt.Errorf("invalid stress settings: %w", harnesserr.ErrConfiguration)
)

// Scenario names.
const (
	SustainedScenario    = "sustained"
	MultiThreadScenario  = "multi-thread"
	MultiProcessScenario = "multi-process"
)

// Outcome is what one worker reports after it exits.
type Outcome struct {
	WorkerID int    `json:"worker_id"`
	Calls    uint64 `json:"calls"`
	Err      error  `json:"-"`
}

// Aggregate summarizes a scenario after every worker has been joined.
type Aggregate struct {
	Scenario     string        `json:"scenario"`
	Workers      int           `json:"workers"`
	Outcomes     []Outcome     `json:"outcomes"`
	AllSucceeded bool          `json:"all_succeeded"`
	TotalCalls   uint64        `json:"total_calls"`
	Elapsed      time.Duration `json:"elapsed"`
	// Err is a scenario-level failure such as a join timeout.
	Err error `json:"-"`
}

func newAggregate(scenario string, workers int, outcomes []Outcome, elapsed time.Duration, err error) Aggregate {
	agg := Aggregate{
		Scenario:     scenario,
		Workers:      workers,
		Outcomes:     outcomes,
		Elapsed:      elapsed,
		Err:          err,
		AllSucceeded: err == nil && len(outcomes) == workers,
	}
	for _, o := range outcomes {
		agg.TotalCalls += o.Calls
		if o.Err != nil {
			agg.AllSucceeded = false
		}
	}
	return agg
}

// FirstError returns the scenario error or the first worker error.
func (a Aggregate) FirstError() error {
	if a.Err != nil {
		return a.Err
	}
	for _, o := range a.Outcomes {
		if o.Err != nil {
			return fmt.Errorf("worker %d: %w", o.WorkerID, o.Err)
		}
	}
	return nil
}

// CallsPerSecond is the combined call rate of every worker.
func (a Aggregate) CallsPerSecond() float64 {
	if a.Elapsed <= 0 {
		return 0
	}
	return float64(a.TotalCalls) / a.Elapsed.Seconds()
}

// loop calls src until tok stops or a call fails.
func loop(id int, src clocksource.Source, clock clocksource.ClockID, tok *Token) Outcome {
	out := Outcome{WorkerID: id}
	for !tok.Stopped() {
		if _, err := src.Now(clock); err != nil {
			out.Err = err
			return out
		}
		out.Calls++
	}
	return out
}

// Sustained runs one tight loop for duration. A failed call ends the loop.
func Sustained(ctx context.Context, src clocksource.Source, clock clocksource.ClockID, duration time.Duration) Aggregate {
	start := time.Now()
	tok := NewDeadlineToken(ctx, duration)
	out := loop(0, src, clock, tok)
	tok.Drain()

	agg := newAggregate(SustainedScenario, 1, []Outcome{out}, time.Since(start), nil)
	slog.Debug("sustained load finished", "calls", agg.TotalCalls, "elapsed", agg.Elapsed, "ok", agg.AllSucceeded)
	return agg
}

// MultiThread runs workers loops, each locked to its own OS thread, until
// duration elapses. If any worker fails the rest are stopped early. Workers
// still running grace after the stop fail the scenario with ErrJoinTimeout;
// their outcomes are not read.
func MultiThread(ctx context.Context, src clocksource.Source, clock clocksource.ClockID, workers int, duration, grace time.Duration) Aggregate {
	if workers < 1 {
		err := fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidSettings, workers)
		return newAggregate(MultiThreadScenario, workers, nil, 0, err)
	}

	start := time.Now()
	tok := NewDeadlineToken(ctx, duration)
	outcomes := make([]Outcome, workers)
	var running atomic.Int32
	running.Store(int32(workers))

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			defer running.Add(-1)

			outcomes[i] = loop(i, src, clock, tok)
			if outcomes[i].Err != nil {
				tok.Stop()
			}
			return outcomes[i].Err
		})
	}

	joined := make(chan error, 1)
	go func() { joined <- g.Wait() }()

	select {
	case <-joined:
	case <-tok.Done():
		select {
		case <-joined:
		case <-time.After(grace):
			err := fmt.Errorf("%d of %d workers still running %s after stop: %w", running.Load(), workers, grace, ErrJoinTimeout)
			slog.Error("multi-thread join timed out", "error", err)
			tok.once.Do(tok.release)
			return newAggregate(MultiThreadScenario, workers, nil, time.Since(start), err)
		}
	}
	tok.Drain()

	agg := newAggregate(MultiThreadScenario, workers, outcomes, time.Since(start), nil)
	slog.Debug("multi-thread load finished", "workers", workers, "calls", agg.TotalCalls, "elapsed", agg.Elapsed, "ok", agg.AllSucceeded)
	return agg
}

// RunCalls makes exactly calls reads. It is the body of a child process.
func RunCalls(src clocksource.Source, clock clocksource.ClockID, calls int) error {
	for i := 0; i < calls; i++ {
		if _, err := src.Now(clock); err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
	}
	return nil
}

// MultiProcess starts workers children through spawn, each making calls
// reads, and waits for all of them. Only their exit status is inspected.
// Children still running after timeout are cancelled through ctx; if the
// spawner has not returned grace after that the scenario fails with
// ErrJoinTimeout and their outcomes are not read.
func MultiProcess(ctx context.Context, spawn Spawner, workers, calls int, timeout, grace time.Duration) Aggregate {
	if workers < 1 || calls < 1 || timeout <= 0 {
		err := fmt.Errorf("%w: need >= 1 workers and calls and a positive timeout, got %d, %d and %s", ErrInvalidSettings, workers, calls, timeout)
		return newAggregate(MultiProcessScenario, workers, nil, 0, err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcomes := make([]Outcome, workers)
	var running atomic.Int32
	running.Store(int32(workers))

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			defer running.Add(-1)
			out := Outcome{WorkerID: i}
			if err := spawn.Spawn(ctx, i, calls); err != nil {
				switch {
				case errors.Is(ctx.Err(), context.DeadlineExceeded):
					err = fmt.Errorf("worker %d still running after %s: %w", i, timeout, ErrJoinTimeout)
				case !errors.Is(err, harnesserr.ErrConcurrency):
					err = fmt.Errorf("%w: %w", ErrChildFailed, err)
				}
				out.Err = err
				outcomes[i] = out
				return err
			}
			out.Calls = uint64(calls)
			outcomes[i] = out
			return nil
		})
	}

	joined := make(chan error, 1)
	go func() { joined <- g.Wait() }()

	var err error
	select {
	case err = <-joined:
	case <-ctx.Done():
		select {
		case err = <-joined:
		case <-time.After(grace):
			joinErr := fmt.Errorf("%d of %d worker processes still running %s after %s: %w", running.Load(), workers, grace, timeout, ErrJoinTimeout)
			slog.Error("multi-process join timed out", "error", joinErr)
			return newAggregate(MultiProcessScenario, workers, nil, time.Since(start), joinErr)
		}
	}
	if err != nil {
		slog.Warn("multi-process worker failed", "error", err)
	}

	agg := newAggregate(MultiProcessScenario, workers, outcomes, time.Since(start), nil)
	slog.Debug("multi-process load finished", "workers", workers, "calls", agg.TotalCalls, "elapsed", agg.Elapsed, "ok", agg.AllSucceeded)
	return agg
}
