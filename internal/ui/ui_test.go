package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/report"
)

func sampleVerdicts() []report.Verdict {
	return []report.Verdict{
		report.Pass("basic-read", report.Functional, 12, "ns"),
		report.Fail("multi-clock", report.Functional, errors.New("boottime: EINVAL")),
		report.Check("throughput-10000", report.Performance, true, 21.5, "cycles").WithDetail("avg | amortized"),
		report.Skip("sustained", report.Stress, "--skip-stress"),
	}
}

func TestPrinterVerdictsPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Verdicts(sampleVerdicts())

	out := buf.String()
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "Functional")
	assert.Contains(t, out, "Performance")
	assert.Contains(t, out, "Stress")
	assert.Contains(t, out, "✓ basic-read 12.00 ns")
	assert.Contains(t, out, "✗ multi-clock")
	assert.Contains(t, out, "(boottime: EINVAL)")
	assert.Contains(t, out, "- sustained (--skip-stress)")
}

func TestPrinterSectionEmptyName(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	require.NotPanics(t, func() { p.Section("") })
	p.Section("accuracy")
	assert.Contains(t, buf.String(), "Accuracy")
	assert.Equal(t, "", title(""))
}

func TestPrinterSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	agg := report.NewAggregator()
	for _, v := range sampleVerdicts() {
		agg.AddVerdict(v)
	}
	p.Summary(agg.Summary())

	out := buf.String()
	assert.Contains(t, out, "Total: 4")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Pass rate: 50.0%")
	assert.Contains(t, out, "1 FAILED")

	buf.Reset()
	p.Summary(report.Summary{Total: 1, Passed: 1, PassRate: 1})
	assert.Contains(t, buf.String(), "ALL PASSED")
}

func TestPrinterBenchTables(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	fast := benchmark.Result{Label: "fast", Source: "fast", Iterations: 100, MinCycles: 18, AvgCycles: 20, MedianCycles: 20, P99Cycles: 30, MaxCycles: 90, CallsPerSec: 150e6}
	slow := benchmark.Result{Label: "syscall", Source: "syscall", Iterations: 100, MinCycles: 300, AvgCycles: 400, MedianCycles: 390, P99Cycles: 600, MaxCycles: 900}
	p.Results([]benchmark.Result{fast, slow})

	out := buf.String()
	assert.Contains(t, out, "LABEL")
	assert.Contains(t, out, "150.0M")
	assert.Contains(t, out, "unknown")

	c, err := benchmark.Compare(slow, fast)
	require.NoError(t, err)
	buf.Reset()
	p.Comparison(c)
	assert.Contains(t, buf.String(), "20.00x faster")

	buf.Reset()
	p.Deltas([]benchmark.Delta{
		{Label: "fast", Prev: fast, Curr: fast, AvgDiffPct: 25},
		{Label: "syscall", Prev: slow, Curr: slow, AvgDiffPct: -30},
		{Label: "paired", AvgDiffPct: 1},
	}, 10)
	out = buf.String()
	assert.Contains(t, out, "REGRESSED")
	assert.Contains(t, out, "IMPROVED")
	assert.Contains(t, out, "OK")
}

func TestPrinterColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)
	p.Verdict(report.Fail("x", report.Functional, nil))
	// The renderer picks the profile of the writer; a buffer is not a
	// terminal, so only the text is guaranteed.
	assert.Contains(t, buf.String(), "x")
}

func TestRenderJSON(t *testing.T) {
	agg := report.NewAggregator()
	for _, v := range sampleVerdicts() {
		agg.AddVerdict(v)
	}
	doc := Document{
		Host:     benchmark.HostInfo{Arch: "amd64", Counter: "rdtsc"},
		Verdicts: sampleVerdicts(),
		Summary:  agg.Summary(),
	}

	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, doc))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "verdicts")
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, 4.0, summary["total"])
	verdicts := decoded["verdicts"].([]any)
	assert.Equal(t, "multi-clock", verdicts[1].(map[string]any)["name"])
}

func TestMarkdown(t *testing.T) {
	agg := report.NewAggregator()
	for _, v := range sampleVerdicts() {
		agg.AddVerdict(v)
	}
	doc := Document{
		Host:     benchmark.HostInfo{Kernel: "6.8.0", Arch: "riscv64", Counter: "rdtime", CPUModel: "SiFive U74"},
		Verdicts: sampleVerdicts(),
		Summary:  agg.Summary(),
	}

	md := doc.Markdown()
	assert.True(t, strings.HasPrefix(md, "# vdsobench report"))
	assert.Contains(t, md, "## Functional")
	assert.Contains(t, md, "| multi-clock | FAIL |")
	assert.Contains(t, md, `avg \| amortized`)
	assert.Contains(t, md, "SiFive U74")

	out, err := RenderMarkdown(md, 100, false)
	require.NoError(t, err)
	assert.Contains(t, out, "vdsobench report")
	assert.Contains(t, out, "multi-clock")
}
