package cliui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// ConfigureColor turns styling off when noColor is set or NO_COLOR is in the
// environment. Otherwise lipgloss keeps the profile it detected.
func ConfigureColor(noColor bool) {
	if noColor || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// PadRight pads a possibly styled string with spaces to width printable
// cells.
func PadRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Plain strips styling from s.
func Plain(s string) string {
	return ansi.Strip(s)
}
