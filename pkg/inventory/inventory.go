// Package inventory reads the list of device pairs to migrate.
//
// Two formats are accepted. CSV files carry one "tn3_address,tn4_address"
// row per pair after a header row. YAML files carry a list under "pairs":
//
//	pairs:
//	  - source: 10.0.3.1
//	    target: 10.0.4.1
package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/tnmigrate/pkg/util"
)

// Pair is one migration: the Tn3 device whose configuration is read and the
// Tn4 device it is applied to.
type Pair struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

func (p Pair) String() string {
	return p.Source + " -> " + p.Target
}

type yamlInventory struct {
	Pairs []Pair `yaml:"pairs"`
}

// Load reads an inventory file, choosing the format by extension (.yaml and
// .yml are YAML, anything else CSV), and validates the result.
func Load(path string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening inventory: %w", err)
	}
	defer f.Close()

	var pairs []Pair
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		pairs, err = ParseYAML(f)
	default:
		pairs, err = ParseCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("reading inventory %s: %w", path, err)
	}
	if err := Validate(pairs); err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	return pairs, nil
}

// ParseCSV reads pairs from CSV. The first row is a header and is skipped.
// Blank lines are ignored; extra columns are not.
func ParseCSV(r io.Reader) ([]Pair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var pairs []Pair
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(rec))
		}
		pairs = append(pairs, Pair{
			Source: strings.TrimSpace(rec[0]),
			Target: strings.TrimSpace(rec[1]),
		})
	}
	return pairs, nil
}

// ParseYAML reads pairs from a YAML document.
func ParseYAML(r io.Reader) ([]Pair, error) {
	var inv yamlInventory
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&inv); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	for i := range inv.Pairs {
		inv.Pairs[i].Source = strings.TrimSpace(inv.Pairs[i].Source)
		inv.Pairs[i].Target = strings.TrimSpace(inv.Pairs[i].Target)
	}
	return inv.Pairs, nil
}

// Validate checks that every pair names two distinct addresses and that no
// target is migrated to twice.
func Validate(pairs []Pair) error {
	v := &util.ValidationBuilder{}
	targets := make(map[string]int)
	for i, p := range pairs {
		n := i + 1
		v.Add(p.Source != "", fmt.Sprintf("pair %d: source address is required", n))
		v.Add(p.Target != "", fmt.Sprintf("pair %d: target address is required", n))
		if p.Source != "" && !validAddress(p.Source) {
			v.AddErrorf("pair %d: invalid source address %q", n, p.Source)
		}
		if p.Target != "" && !validAddress(p.Target) {
			v.AddErrorf("pair %d: invalid target address %q", n, p.Target)
		}
		if p.Source != "" && p.Source == p.Target {
			v.AddErrorf("pair %d: source and target are the same device %s", n, p.Source)
		}
		if p.Target == "" {
			continue
		}
		if first, ok := targets[p.Target]; ok {
			v.AddErrorf("pair %d: target %s already used by pair %d", n, p.Target, first)
		} else {
			targets[p.Target] = n
		}
	}
	return v.Build()
}

// validAddress accepts IP addresses and host names.
func validAddress(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	if len(s) > 253 || strings.ContainsAny(s, " /,:") {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
	}
	return true
}
