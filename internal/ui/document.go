package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/report"
)

// Document is the machine-readable form of one suite run.
type Document struct {
	Timestamp time.Time          `json:"timestamp"`
	Host      benchmark.HostInfo `json:"host"`
	Verdicts  []report.Verdict   `json:"verdicts"`
	Summary   report.Summary     `json:"summary"`
}

// RenderJSON writes v as indented JSON.
func RenderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// Markdown renders the document as a markdown report.
func (d Document) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# vdsobench report\n\n")
	fmt.Fprintf(&sb, "Host: `%s` on `%s`, counter `%s`", d.Host.Kernel, d.Host.Arch, d.Host.Counter)
	if d.Host.CPUModel != "" {
		fmt.Fprintf(&sb, ", %s", d.Host.CPUModel)
	}
	sb.WriteString("\n")

	var current report.Category
	for _, v := range d.Verdicts {
		if v.Category != current {
			current = v.Category
			fmt.Fprintf(&sb, "\n## %s\n\n", title(string(current)))
			sb.WriteString("| Check | Status | Value | Detail |\n|---|---|---|---|\n")
		}
		value := "-"
		if !v.Skipped && v.Unit != "" {
			value = fmt.Sprintf("%.2f %s", v.Value, v.Unit)
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", v.Name, v.Status(), value, escapeCell(v.Detail))
	}

	s := d.Summary
	fmt.Fprintf(&sb, "\n## Summary\n\n**%d** checks: **%d** passed, **%d** failed, **%d** skipped (pass rate %.1f%%)\n",
		s.Total, s.Passed, s.Failed, s.Skipped, s.PassRate*100)
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// RenderMarkdown formats markdown for a terminal. With color false the
// plain "notty" style is used.
func RenderMarkdown(md string, width int, color bool) (string, error) {
	style := glamour.WithStandardStyle("notty")
	if color {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}
