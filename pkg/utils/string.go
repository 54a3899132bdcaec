package utils

import "github.com/charmbracelet/x/ansi"

// Truncate shortens s to at most width terminal cells, ending in "…" when
// anything was cut. Wide runes and ANSI styling are never split.
func Truncate(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}
