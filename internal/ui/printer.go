// Package ui renders suite verdicts and benchmark results for humans and
// machines.
package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/report"
)

// Printer writes styled text reports.
type Printer struct {
	w     io.Writer
	style styles
}

// NewPrinter returns a Printer for w. With color false no escape codes are
// written.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, style: newStyles(w, color)}
}

func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w, p.style.header.Render(title))
}

// Section prints a category heading.
func (p *Printer) Section(name string) {
	fmt.Fprintln(p.w, p.style.section.Render(title(name)))
}

// title upper-cases the first letter of an ASCII name.
func title(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// Verdict prints one line per verdict.
func (p *Printer) Verdict(v report.Verdict) {
	var mark string
	switch {
	case v.Skipped:
		mark = p.style.skip.Render("-")
	case v.Passed:
		mark = p.style.pass.Render("✓")
	default:
		mark = p.style.fail.Render("✗")
	}

	line := fmt.Sprintf("  %s %s", mark, v.Name)
	if !v.Skipped && v.Unit != "" {
		line += " " + p.style.value.Render(fmt.Sprintf("%.2f %s", v.Value, v.Unit))
	}
	if v.Detail != "" {
		line += " " + p.style.detail.Render("("+v.Detail+")")
	}
	fmt.Fprintln(p.w, line)
}

// Verdicts prints vs grouped under their category headings, in order.
func (p *Printer) Verdicts(vs []report.Verdict) {
	var current report.Category
	for _, v := range vs {
		if v.Category != current {
			current = v.Category
			p.Section(string(current))
		}
		p.Verdict(v)
	}
}

// Summary prints the final tally in a box.
func (p *Printer) Summary(s report.Summary) {
	status := p.style.pass.Render("ALL PASSED")
	if !s.OK() {
		status = p.style.fail.Render(fmt.Sprintf("%d FAILED", s.Failed))
	}
	body := fmt.Sprintf("Total: %d  Passed: %d  Failed: %d  Skipped: %d\nPass rate: %.1f%%  %s",
		s.Total, s.Passed, s.Failed, s.Skipped, s.PassRate*100, status)
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.style.box.Render(body))
}

// Results prints benchmark results as a table.
func (p *Printer) Results(results []benchmark.Result) {
	w := tabwriter.NewWriter(p.w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "LABEL\tSOURCE\tITER\tMIN\tAVG\tMEDIAN\tP99\tMAX\tCALLS/S")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.1f\t%d\t%d\t%s\n",
			r.Label, r.Source, r.Iterations, r.MinCycles, r.AvgCycles, r.MedianCycles, r.P99Cycles, r.MaxCycles, rate(r.CallsPerSec))
	}
	w.Flush()
}

// Comparison prints a speedup line.
func (p *Printer) Comparison(c benchmark.Comparison) {
	style := p.style.pass
	if c.Speedup < 1 {
		style = p.style.fail
	}
	fmt.Fprintf(p.w, "\n%s is %s than %s (%s)\n",
		c.Result.Label,
		style.Render(fmt.Sprintf("%.2fx faster", c.Speedup)),
		c.Baseline.Label,
		fmt.Sprintf("%+.1f%%", c.ImprovementPct))
}

// Deltas prints the change against a previous run. Slowdowns beyond
// thresholdPct are flagged as regressions.
func (p *Printer) Deltas(deltas []benchmark.Delta, thresholdPct float64) {
	w := tabwriter.NewWriter(p.w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "LABEL\tPREV AVG\tAVG\tDIFF %\tSTATUS")
	for _, d := range deltas {
		status := "OK"
		if d.Regressed(thresholdPct) {
			status = "REGRESSED"
		} else if d.AvgDiffPct < -thresholdPct {
			status = "IMPROVED"
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%+.2f%%\t%s\n", d.Label, d.Prev.AvgCycles, d.Curr.AvgCycles, d.AvgDiffPct, status)
	}
	w.Flush()
}

func rate(callsPerSec float64) string {
	switch {
	case callsPerSec <= 0:
		return "unknown"
	case callsPerSec >= 1e6:
		return fmt.Sprintf("%.1fM", callsPerSec/1e6)
	case callsPerSec >= 1e3:
		return fmt.Sprintf("%.1fk", callsPerSec/1e3)
	default:
		return fmt.Sprintf("%.0f", callsPerSec)
	}
}
