package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	harnesserr "vdsobench/internal/errors"
	"vdsobench/internal/metrics"
	"vdsobench/internal/notify"
	"vdsobench/internal/predicate"
	"vdsobench/internal/report"
	"vdsobench/internal/stress"
	"vdsobench/internal/telemetry"
	"vdsobench/internal/ui"
)

var (
	runQuick       bool
	runSkipPerf    bool
	runSkipStress  bool
	runFormat      string
	runMetricsFile string
	runNotify      bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the functional, performance, accuracy and stress checks",
	Long: `Runs every check in order and prints one verdict per check followed by a
summary. A failing check never stops the run.

Exit status is 0 when every check passed or was skipped, 1 when any failed,
and 2 when the configuration is invalid.`,
	Args: cobra.NoArgs,
	RunE: runSuite,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runQuick, "quick", false, "Cut sample counts and skip the stress checks for a smoke run")
	runCmd.Flags().BoolVar(&runSkipPerf, "skip-perf", false, "Skip the performance checks")
	runCmd.Flags().BoolVar(&runSkipStress, "skip-stress", false, "Skip the stress checks")
	runCmd.Flags().StringVar(&runFormat, "format", "text", "Output format: text, json or markdown")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Write metrics in Prometheus text format to this file")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "Post the summary to the configured Slack webhook")
}

func runSuite(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	switch runFormat {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q: %w", runFormat, harnesserr.ErrConfiguration)
	}
	if runMetricsFile != "" {
		settings.Metrics.File = runMetricsFile
	}
	notifyEnabled := runNotify || settings.Notify.Slack.Enabled
	if notifyEnabled && settings.Notify.Slack.WebhookURL == "" {
		return fmt.Errorf("--notify needs notify.slack.webhook_url: %w", harnesserr.ErrConfiguration)
	}

	th := settings.Thresholds
	if runQuick {
		th = th.Quick()
	}

	counter := env.Counter()
	cal := env.Calibrator(counter)
	h, err := predicate.NewHarness(env.Fast(), env.Syscall(), counter, cal, th)
	if err != nil {
		return err
	}
	h.Sleep = env.Sleep

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewMetrics()
	if addr := settings.Metrics.Addr; addr != "" {
		go func() {
			if err := telemetry.StartMetricsServer(ctx, addr, m.Handler()); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	hz, known := cal.FrequencyHz()
	m.SetFrequency(hz, known)
	slog.Info("Calibrated counter", "counter", counter.Name(), "native", counter.Native(), "hz", hz, "known", known)

	var spawner stress.Spawner
	if s, err := env.Spawner(h.Clock); err != nil {
		slog.Warn("Multi-process stress unavailable", "error", err)
	} else {
		spawner = s
	}
	plan := &stress.Plan{
		Settings: settings.Stress,
		Source:   h.Fast,
		Clock:    h.Clock,
		Spawner:  spawner,
		Observe:  m.ObserveStress,
	}

	skip := map[report.Category]string{}
	if runSkipPerf {
		skip[report.Performance] = "skipped by --skip-perf"
	}
	switch {
	case runSkipStress:
		skip[report.Stress] = "skipped by --skip-stress"
	case runQuick:
		skip[report.Stress] = "skipped by --quick"
	}

	out := cmd.OutOrStdout()
	color := colorEnabled(out)
	host := env.Host(counter)

	var live func(report.Verdict)
	var printer *ui.Printer
	if runFormat == "text" {
		printer = ui.NewPrinter(out, color)
		printer.Header(fmt.Sprintf("vdsobench: %s %s, counter %s", host.Arch, host.Kernel, host.Counter))
		live = liveVerdicts(printer)
	}

	suite := &predicate.Suite{
		Harness:    h,
		Predicates: append(predicate.Catalog(th), plan.Predicates()...),
		Skip:       skip,
		Observer: func(v report.Verdict) {
			m.ObserveVerdict(v)
			if live != nil {
				live(v)
			}
		},
	}

	agg := report.NewAggregator()
	start := time.Now()
	verdicts, runErr := suite.Run(ctx, agg)
	summary := agg.Summary()
	m.ObserveSummary(summary)
	slog.Info("Suite finished", "total", summary.Total, "failed", summary.Failed, "elapsed", time.Since(start))

	doc := ui.Document{Timestamp: start.UTC(), Host: host, Verdicts: verdicts, Summary: summary}
	if err := render(out, runFormat, printer, doc, color); err != nil {
		return err
	}

	if settings.Metrics.File != "" {
		if err := m.WriteTextfile(settings.Metrics.File); err != nil {
			return err
		}
	}

	if notifyEnabled {
		sendNotification(ctx, env.Notifier(settings.Notify.Slack.WebhookURL), host.Arch+" "+host.Kernel, verdicts, summary)
	}

	if runErr != nil {
		return fmt.Errorf("suite interrupted: %w", runErr)
	}
	if !summary.OK() {
		return errChecksFailed
	}
	return nil
}

// liveVerdicts prints each verdict as it arrives, opening a section when the
// category changes.
func liveVerdicts(p *ui.Printer) func(report.Verdict) {
	var current report.Category
	return func(v report.Verdict) {
		if v.Category != current {
			current = v.Category
			p.Section(string(current))
		}
		p.Verdict(v)
	}
}

func render(w io.Writer, format string, printer *ui.Printer, doc ui.Document, color bool) error {
	switch format {
	case "json":
		return ui.RenderJSON(w, doc)
	case "markdown":
		md := doc.Markdown()
		if color {
			rendered, err := ui.RenderMarkdown(md, 100, true)
			if err != nil {
				return err
			}
			md = rendered
		}
		_, err := io.WriteString(w, md)
		return err
	default:
		printer.Summary(doc.Summary)
		return nil
	}
}

// sendNotification never fails the run; delivery problems are logged.
func sendNotification(ctx context.Context, n notify.Notifier, host string, verdicts []report.Verdict, summary report.Summary) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := n.Notify(ctx, notify.NewMessage("vdsobench", host, verdicts, summary)); err != nil {
		slog.Warn("Failed to send notification", "error", err)
	}
}
