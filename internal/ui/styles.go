package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// styles is the palette for one output stream.
type styles struct {
	header  lipgloss.Style
	section lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	skip    lipgloss.Style
	value   lipgloss.Style
	detail  lipgloss.Style
	box     lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		header: r.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1),
		section: r.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true).
			MarginTop(1),
		pass: r.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true),
		fail: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		skip: r.NewStyle().
			Foreground(lipgloss.Color("214")),
		value: r.NewStyle().
			Foreground(lipgloss.Color("86")),
		detail: r.NewStyle().
			Foreground(lipgloss.Color("245")),
		box: r.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
	}
}
