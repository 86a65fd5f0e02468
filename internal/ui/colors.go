package ui

import "github.com/charmbracelet/lipgloss"

// Cookidoo brand green with muted accents.
const (
	green  = lipgloss.Color("#00A54F")
	mint   = lipgloss.Color("#04B575")
	red    = lipgloss.Color("#E5484D")
	amber  = lipgloss.Color("#F5A524")
	grey   = lipgloss.Color("#6B6B6B")
	butter = lipgloss.Color("#E0B000")
)

var styles = newTheme()

// theme holds the named styles of every view.
type theme struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	today lipgloss.Style
	empty lipgloss.Style
}

func newTheme() theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return theme{
		title: fg(green).Bold(true).MarginBottom(1),
		ok:    fg(mint).Bold(true),
		err:   fg(red).Bold(true),
		warn:  fg(amber),
		help:  fg(grey).Italic(true),
		today: fg(butter).Bold(true),
		empty: fg(grey),
	}
}
