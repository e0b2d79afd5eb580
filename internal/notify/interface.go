package notify

import (
	"context"
	"fmt"
	"strings"

	"vdsobench/internal/report"
)

// Notifier delivers a finished suite result somewhere outside the process.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Message is the suite outcome as seen by a notifier.
type Message struct {
	Title    string
	Host     string
	Summary  report.Summary
	Failures []report.Verdict
}

// NewMessage keeps only the failed verdicts; passes and skips are counted
// in the summary.
func NewMessage(title, host string, verdicts []report.Verdict, summary report.Summary) Message {
	msg := Message{Title: title, Host: host, Summary: summary}
	for _, v := range verdicts {
		if !v.Passed && !v.Skipped {
			msg.Failures = append(msg.Failures, v)
		}
	}
	return msg
}

// Text renders the one-line headline.
func (m Message) Text() string {
	status := "PASSED"
	if !m.Summary.OK() {
		status = "FAILED"
	}
	text := fmt.Sprintf("%s %s: %d/%d checks passed (%.1f%%), %d skipped",
		m.Title, status, m.Summary.Passed, m.Summary.Total, m.Summary.PassRate*100, m.Summary.Skipped)
	if m.Host != "" {
		text += " on " + m.Host
	}
	return text
}

// FailureLines lists failed checks, one per line.
func (m Message) FailureLines() string {
	lines := make([]string, 0, len(m.Failures))
	for _, v := range m.Failures {
		line := fmt.Sprintf("[%s] %s", v.Category, v.Name)
		if v.Detail != "" {
			line += ": " + v.Detail
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
