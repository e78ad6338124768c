package util

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ex2300-a", "ex2300-a"},
		{"10.0.0.1", "10.0.0.1"},
		{"sw/01 core", "sw-01-core"},
		{"leaf_1", "leaf_1"},
		{"fe80::1", "fe80--1"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
