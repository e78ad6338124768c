// Package cli provides shared terminal formatting helpers for tnmigrate.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// colorEnabled is false when NO_COLOR is set (see no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return code + s + ansiReset
}

func Green(s string) string  { return paint(ansiGreen, s) }
func Yellow(s string) string { return paint(ansiYellow, s) }
func Red(s string) string    { return paint(ansiRed, s) }
func Bold(s string) string   { return paint(ansiBold, s) }
func Dim(s string) string    { return paint(ansiDim, s) }

// DotPad pads name with dots to the given width.
// Example: DotPad("10.0.3.1", 20) → "10.0.3.1 ..........."
func DotPad(name string, width int) string {
	if width <= 0 || len(name) >= width-1 {
		return name
	}
	return name + " " + strings.Repeat(".", width-len(name)-1)
}

// FormatDuration formats a duration compactly: "<1s", "42s", "3m", "3m07s".
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	m, s := int(d/time.Minute), int(d%time.Minute/time.Second)
	switch {
	case m == 0:
		return fmt.Sprintf("%ds", s)
	case s == 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}

// Truncate shortens s to at most n bytes, marking the cut with "...".
func Truncate(s string, n int) string {
	if len(s) <= n || n < 4 {
		return s
	}
	return s[:n-3] + "..."
}
