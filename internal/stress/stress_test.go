package stress

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdsobench/internal/clocksource"
	harnesserr "vdsobench/internal/errors"
	"vdsobench/internal/predicate"
	"vdsobench/internal/report"
)

func countingSource(calls *atomic.Uint64) clocksource.Source {
	return clocksource.FuncSource{Label: "counting", Fn: func(clocksource.ClockID) (clocksource.Timestamp, error) {
		n := calls.Add(1)
		return clocksource.FromNanos(int64(n)), nil
	}}
}

func failingAfter(n uint64) clocksource.Source {
	var calls atomic.Uint64
	return clocksource.FuncSource{Label: "failing", Fn: func(clocksource.ClockID) (clocksource.Timestamp, error) {
		if calls.Add(1) > n {
			return clocksource.Timestamp{}, syscall.EFAULT
		}
		return clocksource.Timestamp{}, nil
	}}
}

func TestSustained(t *testing.T) {
	var calls atomic.Uint64
	agg := Sustained(context.Background(), countingSource(&calls), clocksource.Monotonic, 50*time.Millisecond)

	assert.True(t, agg.AllSucceeded)
	assert.Equal(t, SustainedScenario, agg.Scenario)
	assert.Equal(t, calls.Load(), agg.TotalCalls)
	assert.Greater(t, agg.TotalCalls, uint64(0))
	assert.GreaterOrEqual(t, agg.Elapsed, 50*time.Millisecond)
	assert.NoError(t, agg.FirstError())
}

func TestSustainedAbortsOnFailure(t *testing.T) {
	agg := Sustained(context.Background(), failingAfter(100), clocksource.Monotonic, time.Minute)

	assert.False(t, agg.AllSucceeded)
	assert.Equal(t, uint64(100), agg.TotalCalls)
	err := agg.FirstError()
	assert.ErrorIs(t, err, syscall.EFAULT)
	assert.Less(t, agg.Elapsed, time.Minute)

	v := Verdict(agg)
	assert.False(t, v.Passed)
	assert.Equal(t, report.Stress, v.Category)
}

func TestMultiThreadShort(t *testing.T) {
	var calls atomic.Uint64
	agg := MultiThread(context.Background(), countingSource(&calls), clocksource.Monotonic, 4, 50*time.Millisecond, time.Second)

	require.NoError(t, agg.FirstError())
	assert.True(t, agg.AllSucceeded)
	assert.Len(t, agg.Outcomes, 4)
	assert.Equal(t, calls.Load(), agg.TotalCalls)
	for i, o := range agg.Outcomes {
		assert.Equal(t, i, o.WorkerID)
		assert.Greater(t, o.Calls, uint64(0))
	}
}

func TestMultiThreadTenWorkersDrainWithinGrace(t *testing.T) {
	if testing.Short() {
		t.Skip("runs for one second")
	}
	start := time.Now()
	agg := MultiThread(context.Background(), clocksource.Fast(), clocksource.Monotonic, 10, time.Second, 2*time.Second)

	require.NoError(t, agg.FirstError())
	assert.True(t, agg.AllSucceeded)
	assert.Len(t, agg.Outcomes, 10)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestMultiThreadStopsOthersOnFailure(t *testing.T) {
	agg := MultiThread(context.Background(), failingAfter(1000), clocksource.Monotonic, 4, time.Minute, 5*time.Second)

	assert.False(t, agg.AllSucceeded)
	assert.Less(t, agg.Elapsed, time.Minute)
	assert.ErrorIs(t, agg.FirstError(), harnesserr.ErrAdapter)
}

func TestMultiThreadJoinTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stuck := clocksource.FuncSource{Label: "stuck", Fn: func(clocksource.ClockID) (clocksource.Timestamp, error) {
		<-release
		return clocksource.Timestamp{}, nil
	}}

	agg := MultiThread(context.Background(), stuck, clocksource.Monotonic, 2, 20*time.Millisecond, 50*time.Millisecond)

	assert.False(t, agg.AllSucceeded)
	assert.ErrorIs(t, agg.Err, ErrJoinTimeout)
	assert.Equal(t, harnesserr.KindConcurrency, harnesserr.Classify(agg.Err))
	assert.Nil(t, agg.Outcomes)
	assert.False(t, Verdict(agg).Passed)
}

func TestMultiThreadRejectsZeroWorkers(t *testing.T) {
	agg := MultiThread(context.Background(), clocksource.Fast(), clocksource.Monotonic, 0, time.Millisecond, time.Millisecond)
	assert.ErrorIs(t, agg.Err, ErrInvalidSettings)
	assert.False(t, agg.AllSucceeded)
}

func TestMultiProcessWithSpawnFunc(t *testing.T) {
	var spawned atomic.Int32
	ok := SpawnFunc(func(_ context.Context, _, _ int) error {
		spawned.Add(1)
		return nil
	})
	agg := MultiProcess(context.Background(), ok, 5, 1000, time.Minute, time.Second)
	assert.True(t, agg.AllSucceeded)
	assert.Equal(t, int32(5), spawned.Load())
	assert.Equal(t, uint64(5000), agg.TotalCalls)

	oneBad := SpawnFunc(func(_ context.Context, id, _ int) error {
		if id == 3 {
			return errors.New("exit status 1")
		}
		return nil
	})
	agg = MultiProcess(context.Background(), oneBad, 5, 1000, time.Minute, time.Second)
	assert.False(t, agg.AllSucceeded)
	assert.Equal(t, uint64(4000), agg.TotalCalls)
	assert.ErrorIs(t, agg.FirstError(), ErrChildFailed)
	assert.ErrorIs(t, agg.Outcomes[3].Err, harnesserr.ErrConcurrency)
}

func TestMultiProcessChildTimeout(t *testing.T) {
	waitsForCancel := SpawnFunc(func(ctx context.Context, id, _ int) error {
		if id == 0 {
			return nil
		}
		<-ctx.Done()
		return ctx.Err()
	})

	agg := MultiProcess(context.Background(), waitsForCancel, 3, 10, 50*time.Millisecond, time.Second)

	assert.False(t, agg.AllSucceeded)
	assert.Less(t, agg.Elapsed, time.Second)
	require.Len(t, agg.Outcomes, 3)
	assert.NoError(t, agg.Outcomes[0].Err)
	assert.ErrorIs(t, agg.Outcomes[1].Err, ErrJoinTimeout)
	assert.ErrorIs(t, agg.FirstError(), ErrJoinTimeout)
	assert.Equal(t, uint64(10), agg.TotalCalls)
}

func TestMultiProcessHungSpawnerJoinTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	hung := SpawnFunc(func(context.Context, int, int) error {
		<-release
		return nil
	})

	start := time.Now()
	agg := MultiProcess(context.Background(), hung, 3, 10, 20*time.Millisecond, 50*time.Millisecond)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, agg.AllSucceeded)
	assert.ErrorIs(t, agg.Err, ErrJoinTimeout)
	assert.Equal(t, harnesserr.KindConcurrency, harnesserr.Classify(agg.Err))
	assert.Nil(t, agg.Outcomes)
	assert.False(t, Verdict(agg).Passed)
}

func TestMultiProcessRejectsBadSettings(t *testing.T) {
	noop := SpawnFunc(func(context.Context, int, int) error { return nil })
	agg := MultiProcess(context.Background(), noop, 2, 10, 0, time.Second)
	assert.ErrorIs(t, agg.Err, ErrInvalidSettings)
	assert.False(t, agg.AllSucceeded)
}

func helperSpawner(extraEnv ...string) *SelfSpawner {
	exe, _ := os.Executable()
	return &SelfSpawner{
		Path:  exe,
		Args:  []string{"-test.run=TestStressHelperProcess", "--"},
		Env:   append([]string{"GO_WANT_HELPER_PROCESS=1"}, extraEnv...),
		Clock: clocksource.Monotonic,
	}
}

func TestMultiProcessTenChildren(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns child processes")
	}
	agg := MultiProcess(context.Background(), helperSpawner(), 10, 100_000, time.Minute, 2*time.Second)

	require.NoError(t, agg.FirstError())
	assert.True(t, agg.AllSucceeded)
	assert.Equal(t, uint64(1_000_000), agg.TotalCalls)
}

func TestMultiProcessChildFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns child processes")
	}
	agg := MultiProcess(context.Background(), helperSpawner("MOCK_WORKER_OUTCOME=fail"), 2, 10, time.Minute, 2*time.Second)

	assert.False(t, agg.AllSucceeded)
	err := agg.FirstError()
	assert.ErrorIs(t, err, ErrChildFailed)
	assert.Contains(t, err.Error(), "status 3")
}

func TestStressHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	if os.Getenv("MOCK_WORKER_OUTCOME") == "fail" {
		fmt.Fprintln(os.Stderr, "forced failure")
		os.Exit(3)
	}

	calls := 0
	clock := clocksource.Monotonic
	for i := 0; i+1 < len(args); i += 2 {
		switch args[i] {
		case "--calls":
			calls, _ = strconv.Atoi(args[i+1])
		case "--clock":
			clock, _ = clocksource.ParseClock(args[i+1])
		}
	}
	if err := RunCalls(clocksource.Fast(), clock, calls); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func TestPlanPredicates(t *testing.T) {
	var calls atomic.Uint64
	var observed []string
	plan := &Plan{
		Settings: Settings{
			SustainedDuration: 20 * time.Millisecond,
			Threads:           2,
			ThreadDuration:    20 * time.Millisecond,
			JoinGrace:         time.Second,
			Processes:         3,
			ProcessCalls:      10,
			ProcessTimeout:    time.Minute,
		},
		Source:  countingSource(&calls),
		Clock:   clocksource.Monotonic,
		Spawner: SpawnFunc(func(context.Context, int, int) error { return nil }),
		Observe: func(a Aggregate) { observed = append(observed, a.Scenario) },
	}
	require.NoError(t, plan.Settings.Validate())

	suite := &predicate.Suite{Predicates: plan.Predicates()}
	agg := report.NewAggregator()
	verdicts, err := suite.Run(context.Background(), agg)
	require.NoError(t, err)

	require.Len(t, verdicts, 3)
	for _, v := range verdicts {
		assert.True(t, v.Passed, "%s: %s", v.Name, v.Detail)
		assert.Equal(t, "calls/s", v.Unit)
	}
	assert.Equal(t, []string{SustainedScenario, MultiThreadScenario, MultiProcessScenario}, observed)
	assert.Equal(t, 3, agg.Summary().Passed)
}

func TestPlanSkipsMultiProcessWithoutSpawner(t *testing.T) {
	plan := &Plan{Settings: DefaultSettings(), Source: clocksource.Fast(), Clock: clocksource.Monotonic}
	preds := plan.Predicates()
	v := preds[2].Check(context.Background(), nil)
	assert.True(t, v.Skipped)
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.Threads = 0
	s.JoinGrace = 0
	s.ProcessTimeout = 0
	err := s.Validate()
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Contains(t, err.Error(), "threads")
	assert.Contains(t, err.Error(), "join_grace")
	assert.Contains(t, err.Error(), "process_timeout")
}
