package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/clocksource"
	"vdsobench/internal/metrics"
	"vdsobench/internal/ui"
)

var (
	benchSave       bool
	benchCompare    bool
	benchThreshold  float64
	benchIterations int
	benchWarmup     int
	benchClock      string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the fast path against the syscall path",
	Long: `Times clock_gettime through the fast path and through a real syscall,
prints cycle statistics for both and the fast path's speedup.

With --save the run is appended to the history store configured under
history.*; with --compare it is diffed against the previous saved run and
slowdowns beyond --threshold percent are flagged.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().BoolVar(&benchSave, "save", false, "Save results to history")
	benchCmd.Flags().BoolVar(&benchCompare, "compare", false, "Compare with the previous saved run")
	benchCmd.Flags().Float64Var(&benchThreshold, "threshold", 10.0, "Percentage threshold for regression warning")
	benchCmd.Flags().IntVar(&benchIterations, "iterations", 0, "Fast-path iterations (overrides benchmark.iterations)")
	benchCmd.Flags().IntVar(&benchWarmup, "warmup", 0, "Fast-path warmup iterations (overrides benchmark.warmup)")
	benchCmd.Flags().StringVar(&benchClock, "clock", "monotonic", "Clock id to read")
}

func runBench(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	clock, err := clocksource.ParseClock(benchClock)
	if err != nil {
		return err
	}

	fastCfg := benchmark.Config{
		Iterations: settings.Benchmark.Iterations,
		Warmup:     settings.Benchmark.Warmup,
		Label:      clocksource.FastName,
		Clock:      clock,
	}
	if cmd.Flags().Changed("iterations") {
		fastCfg.Iterations = benchIterations
	}
	if cmd.Flags().Changed("warmup") {
		fastCfg.Warmup = benchWarmup
	}
	if err := fastCfg.Validate(); err != nil {
		return err
	}
	syscallCfg := benchmark.Config{
		Iterations: settings.Benchmark.SyscallIterations,
		Warmup:     settings.Benchmark.SyscallWarmup,
		Label:      clocksource.SyscallName,
		Clock:      clock,
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	counter := env.Counter()
	runner := benchmark.NewRunner(counter, env.Calibrator(counter))
	m := metrics.NewMetrics()
	hz, known := runner.Calibrator.FrequencyHz()
	m.SetFrequency(hz, known)

	fast, sys := env.Fast(), env.Syscall()
	if !fast.Supports(clock) {
		return fmt.Errorf("fast path cannot read %s: %w", clock, clocksource.ErrUnsupportedClock)
	}

	slog.Info("Running benchmark", "source", fast.Name(), "clock", clock, "iterations", fastCfg.Iterations, "warmup", fastCfg.Warmup)
	fastRes, err := runner.Run(ctx, fast, fastCfg)
	if err != nil {
		return fmt.Errorf("fast path benchmark failed: %w", err)
	}
	results := []benchmark.Result{fastRes}

	var sysRes *benchmark.Result
	if sys.Supports(clock) {
		slog.Info("Running benchmark", "source", sys.Name(), "clock", clock, "iterations", syscallCfg.Iterations, "warmup", syscallCfg.Warmup)
		r, err := runner.Run(ctx, sys, syscallCfg)
		if err != nil {
			return fmt.Errorf("syscall path benchmark failed: %w", err)
		}
		results = append(results, r)
		sysRes = &r
	} else {
		slog.Warn("Syscall path unavailable on this platform", "clock", clock)
	}
	for _, r := range results {
		m.ObserveResult(r)
	}

	out := cmd.OutOrStdout()
	p := ui.NewPrinter(out, colorEnabled(out))
	p.Header(fmt.Sprintf("clock_gettime(%s), counter %s", clock, counter.Name()))
	p.Results(results)
	if !known {
		fmt.Fprintln(out, "Counter frequency unknown; calls/s not estimated.")
	}
	if sysRes != nil {
		if c, err := benchmark.Compare(*sysRes, fastRes); err == nil {
			p.Comparison(c)
		} else {
			slog.Warn("Cannot compare results", "error", err)
		}
	}

	if settings.Metrics.File != "" {
		if err := m.WriteTextfile(settings.Metrics.File); err != nil {
			return err
		}
	}

	if !benchSave && !benchCompare {
		return nil
	}

	store, err := env.Store(settings.History.StoreConfig())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	run := benchmark.Run{Timestamp: time.Now().UTC(), Host: env.Host(counter), Results: results}

	if benchCompare {
		prev, err := store.LoadLatest()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load history: %v\n", err)
		} else if prev == nil {
			fmt.Fprintln(out, "\nNo previous run to compare against.")
		} else {
			fmt.Fprintf(out, "\nCompared with run from %s:\n", prev.Timestamp.Format(time.RFC3339))
			deltas := benchmark.CompareRuns(*prev, run)
			p.Deltas(deltas, benchThreshold)
			for _, d := range deltas {
				if d.Regressed(benchThreshold) {
					slog.Warn("Performance regression", "label", d.Label, "diff_pct", d.AvgDiffPct)
				}
			}
		}
	}

	if benchSave {
		if err := store.Save(run); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
		fmt.Fprintf(out, "\nResults saved to %s history\n", historyName(settings.History.Type))
	}
	return nil
}

func historyName(t string) string {
	if t == "" {
		return "file"
	}
	return t
}
