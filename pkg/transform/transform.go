// Package transform rewrites a Tn3 configuration tree into the VLAN and
// interface subtrees a Tn4 device accepts.
package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

const (
	// legacyPrefix is the only Tn3 port type with a Tn4 equivalent.
	legacyPrefix = "ge"
	// migratedPrefix is the Tn4 multi-gigabit port type.
	migratedPrefix = "mge"

	// Ports at or above this number move to the mge range on Tn4.
	multiGigFirstPort = 24

	legacyModeTag   = "port-mode"
	migratedModeTag = "interface-mode"
)

// retainedVlanTags are the VLAN children Tn4 accepts from a Tn3 VLAN.
var retainedVlanTags = map[string]bool{
	"name":        true,
	"vlan-id":     true,
	"description": true,
}

// Rename records an interface whose name was rewritten.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Result holds the transformed subtrees. Vlans and Interfaces point into the
// tree given to Transform; either is nil when the source had no such subtree.
type Result struct {
	Vlans      *etree.Element
	Interfaces *etree.Element

	// Warnings lists every VLAN child that was dropped, one per element.
	Warnings []string
	// Dropped lists the names of removed interfaces, in source order.
	Dropped []string
	// Renamed lists interfaces moved to the mge range, in source order.
	Renamed []Rename
	// ModeRenames counts port-mode elements renamed to interface-mode.
	ModeRenames int
}

// Transform filters and rewrites the vlans and interfaces subtrees of tree in
// place. It fails with a *util.MalformedInterfaceNameError when a ge
// interface name cannot be parsed; the tree may be partially rewritten then
// and must not be applied.
//
// Interfaces already named mge-* pass through unchanged, so a second
// Transform of the same tree is a no-op.
func Transform(tree *configtree.Tree) (*Result, error) {
	res := &Result{
		Vlans:      tree.Vlans(),
		Interfaces: tree.Interfaces(),
	}

	if res.Vlans != nil {
		res.Warnings = filterVlans(res.Vlans)
	}
	if res.Interfaces != nil {
		if err := rewriteInterfaces(res.Interfaces, res); err != nil {
			return nil, err
		}
		res.ModeRenames = renameModes(res.Interfaces)
	}
	return res, nil
}

func filterVlans(vlans *etree.Element) []string {
	var warnings []string
	for _, vlan := range vlans.SelectElements(configtree.TagVlan) {
		// ChildElements returns a fresh slice, removals below do not shift it.
		for _, el := range vlan.ChildElements() {
			if retainedVlanTags[el.Tag] {
				continue
			}
			vlan.RemoveChild(el)
			warnings = append(warnings, fmt.Sprintf("Ignored VLAN configuration (%s=%s)", el.Tag, strings.TrimSpace(el.Text())))
		}
	}
	return warnings
}

func rewriteInterfaces(interfaces *etree.Element, res *Result) error {
	for i, iface := range interfaces.SelectElements(configtree.TagInterface) {
		nameEl := iface.SelectElement(configtree.TagName)
		if nameEl == nil {
			return &util.MalformedInterfaceNameError{Index: i, Reason: "missing name element"}
		}
		name := strings.TrimSpace(nameEl.Text())

		prefix, _, _ := strings.Cut(name, "-")
		switch prefix {
		case legacyPrefix:
		case migratedPrefix:
			continue
		default:
			interfaces.RemoveChild(iface)
			res.Dropped = append(res.Dropped, name)
			continue
		}

		port, err := portNumber(name)
		if err != nil {
			return &util.MalformedInterfaceNameError{Index: i, Name: name, Reason: err.Error()}
		}
		if port >= multiGigFirstPort {
			renamed := fmt.Sprintf("%s-0/0/%d", migratedPrefix, port)
			nameEl.SetText(renamed)
			res.Renamed = append(res.Renamed, Rename{From: name, To: renamed})
		}
	}
	return nil
}

// portNumber returns the third '/'-separated component of name.
func portNumber(name string) (int, error) {
	parts := strings.Split(name, "/")
	if len(parts) < 3 {
		return 0, fmt.Errorf("expected <type>-<slot>/<module>/<port>, got %d segment(s)", len(parts))
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil || port < 0 {
		return 0, fmt.Errorf("port %q is not a non-negative integer", parts[2])
	}
	return port, nil
}

// renameModes renames every port-mode element below interfaces.
func renameModes(interfaces *etree.Element) int {
	modes := interfaces.FindElements(".//" + legacyModeTag)
	for _, el := range modes {
		el.Tag = migratedModeTag
	}
	return len(modes)
}
