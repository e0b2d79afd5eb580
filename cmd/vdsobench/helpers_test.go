package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/calibrate"
	"vdsobench/internal/clocksource"
	"vdsobench/internal/cycles"
	"vdsobench/internal/notify"
	"vdsobench/internal/stress"
)

// fakeClock advances one nanosecond per read and by d on sleep. It is safe
// for the concurrent readers of the stress scenarios.
type fakeClock struct {
	now atomic.Int64
}

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.now.Store(1_700_000_000 * 1e9)
	return c
}

func (c *fakeClock) source(name string) clocksource.Source {
	return clocksource.FuncSource{Label: name, Fn: func(clocksource.ClockID) (clocksource.Timestamp, error) {
		return clocksource.FromNanos(c.now.Add(1)), nil
	}}
}

func (c *fakeClock) sleep(d time.Duration) { c.now.Add(d.Nanoseconds()) }

type fakeCounter struct {
	now atomic.Uint64
}

func (c *fakeCounter) Read() uint64 { return c.now.Add(10) }
func (c *fakeCounter) Name() string { return "fake" }
func (c *fakeCounter) Native() bool { return true }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

type fakeEnv struct {
	clock    *fakeClock
	spawned  atomic.Int32
	notifier *recordingNotifier
}

// useFakeEnv swaps the host environment for deterministic fakes, runs in a
// fresh working directory and shrinks the stress scenarios.
func useFakeEnv(t *testing.T) *fakeEnv {
	t.Helper()
	fe := &fakeEnv{clock: newFakeClock(), notifier: &recordingNotifier{}}

	saved := env
	env = environment{
		Fast:    func() clocksource.Source { return fe.clock.source(clocksource.FastName) },
		Syscall: func() clocksource.Source { return fe.clock.source(clocksource.SyscallName) },
		Counter: func() cycles.Counter { return &fakeCounter{} },
		Calibrator: func(cycles.Counter) calibrate.Calibrator {
			return calibrate.Func(func() (float64, bool) { return 1e9, true })
		},
		Sleep: fe.clock.sleep,
		Spawner: func(clocksource.ClockID) (stress.Spawner, error) {
			return stress.SpawnFunc(func(context.Context, int, int) error {
				fe.spawned.Add(1)
				return nil
			}), nil
		},
		Store:    saved.Store,
		Notifier: func(string) notify.Notifier { return fe.notifier },
		Host: func(c cycles.Counter) benchmark.HostInfo {
			return benchmark.HostInfo{Kernel: "6.8.0-test", Arch: "amd64", Counter: c.Name()}
		},
	}
	t.Cleanup(func() { env = saved })

	t.Chdir(t.TempDir())
	t.Setenv("NO_COLOR", "1")
	t.Setenv("VDSOBENCH_STRESS_SUSTAINED_DURATION", "50ms")
	t.Setenv("VDSOBENCH_STRESS_THREADS", "2")
	t.Setenv("VDSOBENCH_STRESS_THREAD_DURATION", "50ms")
	t.Setenv("VDSOBENCH_STRESS_PROCESSES", "2")
	t.Setenv("VDSOBENCH_STRESS_PROCESS_CALLS", "10")

	viper.Reset()
	t.Cleanup(viper.Reset)
	return fe
}

// executeCommand executes a cobra command and returns its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				return
			}
			panic(r)
		}
	}()
	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	err := root.Execute()
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
