package main

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/calibrate"
	"vdsobench/internal/clocksource"
	"vdsobench/internal/cycles"
	"vdsobench/internal/db"
	"vdsobench/internal/notify"
	"vdsobench/internal/stress"
)

// environment holds the constructors commands use to reach the host.
// Tests swap it for fakes.
type environment struct {
	Fast       func() clocksource.Source
	Syscall    func() clocksource.Source
	Counter    func() cycles.Counter
	Calibrator func(cycles.Counter) calibrate.Calibrator
	Sleep      func(time.Duration)
	Spawner    func(clocksource.ClockID) (stress.Spawner, error)
	Store      func(db.StoreConfig) (benchmark.Store, error)
	Notifier   func(webhookURL string) notify.Notifier
	Host       func(cycles.Counter) benchmark.HostInfo
}

var env = defaultEnvironment()

func defaultEnvironment() environment {
	return environment{
		Fast:    clocksource.Fast,
		Syscall: clocksource.Syscall,
		Counter: cycles.New,
		Calibrator: func(c cycles.Counter) calibrate.Calibrator {
			return calibrate.Once(calibrate.Default(c, ""))
		},
		Sleep: time.Sleep,
		Spawner: func(clock clocksource.ClockID) (stress.Spawner, error) {
			return stress.NewSelfSpawner(clock)
		},
		Store: db.NewStore,
		Notifier: func(webhookURL string) notify.Notifier {
			return notify.NewSlackNotifier(webhookURL)
		},
		Host: detectHost,
	}
}

// colorEnabled reports whether w is a terminal that should get styling.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
