package inventory

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/newtron-network/tnmigrate/pkg/util"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Pair
		wantErr bool
	}{
		{
			name:  "header skipped",
			input: "tn3_ip,tn4_ip\n10.0.3.1,10.0.4.1\n10.0.3.2, 10.0.4.2\n",
			want: []Pair{
				{Source: "10.0.3.1", Target: "10.0.4.1"},
				{Source: "10.0.3.2", Target: "10.0.4.2"},
			},
		},
		{
			name:  "blank lines and comments",
			input: "tn3_ip,tn4_ip\n\n# spare\n10.0.3.1,10.0.4.1\n",
			want:  []Pair{{Source: "10.0.3.1", Target: "10.0.4.1"}},
		},
		{
			name:  "header only",
			input: "tn3_ip,tn4_ip\n",
		},
		{
			name:  "empty file",
			input: "",
		},
		{
			name:    "wrong column count",
			input:   "tn3_ip,tn4_ip\n10.0.3.1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCSV() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseYAML(t *testing.T) {
	input := `pairs:
  - source: 10.0.3.1
    target: 10.0.4.1
  - source: tn3-edge.example.net
    target: tn4-edge.example.net
`
	got, err := ParseYAML(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseYAML() error: %v", err)
	}
	want := []Pair{
		{Source: "10.0.3.1", Target: "10.0.4.1"},
		{Source: "tn3-edge.example.net", Target: "tn4-edge.example.net"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseYAML() = %v, want %v", got, want)
	}

	if _, err := ParseYAML(strings.NewReader("pairs:\n  - src: a\n")); err == nil {
		t.Error("unknown fields should be rejected")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []Pair
		wantErr string
	}{
		{
			name:  "valid",
			pairs: []Pair{{Source: "10.0.3.1", Target: "10.0.4.1"}, {Source: "sw3", Target: "sw4"}},
		},
		{
			name:    "missing target",
			pairs:   []Pair{{Source: "10.0.3.1"}},
			wantErr: "pair 1: target address is required",
		},
		{
			name:    "same device",
			pairs:   []Pair{{Source: "10.0.3.1", Target: "10.0.3.1"}},
			wantErr: "same device",
		},
		{
			name:    "duplicate target",
			pairs:   []Pair{{Source: "10.0.3.1", Target: "10.0.4.1"}, {Source: "10.0.3.2", Target: "10.0.4.1"}},
			wantErr: "pair 2: target 10.0.4.1 already used by pair 1",
		},
		{
			name:    "bad address",
			pairs:   []Pair{{Source: "10.0.3.1/24", Target: "10.0.4.1"}},
			wantErr: "invalid source address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.pairs)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
			if !errors.Is(err, util.ErrValidationFailed) {
				t.Error("error should wrap ErrValidationFailed")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "switches.csv")
	yamlPath := filepath.Join(dir, "switches.yaml")
	os.WriteFile(csvPath, []byte("tn3_ip,tn4_ip\n10.0.3.1,10.0.4.1\n"), 0644)
	os.WriteFile(yamlPath, []byte("pairs:\n  - source: 10.0.3.1\n    target: 10.0.4.1\n"), 0644)

	for _, path := range []string{csvPath, yamlPath} {
		pairs, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) error: %v", path, err)
		}
		if len(pairs) != 1 || pairs[0].String() != "10.0.3.1 -> 10.0.4.1" {
			t.Errorf("Load(%s) = %v", path, pairs)
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}
