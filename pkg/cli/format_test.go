package cli

import (
	"testing"
	"time"
)

func TestDotPad(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"10.0.3.1", 20, "10.0.3.1 ..........."},
		{"ok", 5, "ok .."},
		{"abcde", 6, "abcde"},
		{"10.0.3.100", 4, "10.0.3.100"},
		{"", 3, " .."},
		{"x", 0, "x"},
	}
	for _, tt := range tests {
		got := DotPad(tt.input, tt.width)
		if got != tt.want {
			t.Errorf("DotPad(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
		if tt.width > len(tt.input)+1 && len(got) != tt.width {
			t.Errorf("DotPad(%q, %d) len = %d", tt.input, tt.width, len(got))
		}
	}
}

func TestColors(t *testing.T) {
	saved := colorEnabled
	t.Cleanup(func() { colorEnabled = saved })

	fns := map[string]func(string) string{
		ansiGreen:  Green,
		ansiYellow: Yellow,
		ansiRed:    Red,
		ansiBold:   Bold,
		ansiDim:    Dim,
	}

	colorEnabled = true
	for code, fn := range fns {
		if got := fn("FAIL"); got != code+"FAIL"+ansiReset {
			t.Errorf("colored = %q", got)
		}
	}

	colorEnabled = false
	for _, fn := range fns {
		if got := fn("FAIL"); got != "FAIL" {
			t.Errorf("NO_COLOR output = %q, want plain text", got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{300 * time.Millisecond, "<1s"},
		{42 * time.Second, "42s"},
		{59600 * time.Millisecond, "1m"},
		{3 * time.Minute, "3m"},
		{3*time.Minute + 7*time.Second, "3m07s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("commit rejected", 40); got != "commit rejected" {
		t.Errorf("short string changed: %q", got)
	}
	if got := Truncate("loading vlans on 10.0.4.1: syntax error", 20); got != "loading vlans on ..." || len(got) != 20 {
		t.Errorf("Truncate() = %q", got)
	}
}
