// Package configtree holds a device configuration as an ordered element tree.
//
// A Tree is what a device fetch returns. The structured rendering has a
// <configuration> root whose direct children are the configuration
// hierarchies (system, interfaces, vlans, ...). The set and text renderings
// are trees whose root element carries the rendering as character data.
package configtree

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Well-known element tags.
const (
	TagConfiguration = "configuration"
	TagVlans         = "vlans"
	TagVlan          = "vlan"
	TagInterfaces    = "interfaces"
	TagInterface     = "interface"
	TagName          = "name"
)

// Tree is a parsed configuration document. Accessors return live elements;
// mutations through them change the tree.
type Tree struct {
	doc *etree.Document
}

// Parse reads a configuration document. The input may be a bare
// <configuration> element, an <rpc-reply> wrapping one, or any other single
// root (text renderings).
func Parse(data string) (*Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(data); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parsing configuration: document has no root element")
	}
	return &Tree{doc: doc}, nil
}

// FromElement wraps an element in a new Tree. The element is moved, not
// copied, when it has no parent.
func FromElement(root *etree.Element) *Tree {
	doc := etree.NewDocument()
	if root.Parent() != nil {
		root = root.Copy()
	}
	doc.SetRoot(root)
	return &Tree{doc: doc}
}

// Root returns the document root element.
func (t *Tree) Root() *etree.Element {
	return t.doc.Root()
}

// Configuration returns the <configuration> element, searching below an
// envelope root if needed. When there is no such element the root is returned.
func (t *Tree) Configuration() *etree.Element {
	root := t.doc.Root()
	if root == nil || root.Tag == TagConfiguration {
		return root
	}
	if cfg := root.FindElement(".//" + TagConfiguration); cfg != nil {
		return cfg
	}
	return root
}

// Subtree returns the direct child of the configuration element with the
// given tag, or nil.
func (t *Tree) Subtree(tag string) *etree.Element {
	cfg := t.Configuration()
	if cfg == nil {
		return nil
	}
	return cfg.SelectElement(tag)
}

// Vlans returns the live <vlans> subtree, or nil.
func (t *Tree) Vlans() *etree.Element {
	return t.Subtree(TagVlans)
}

// Interfaces returns the live <interfaces> subtree, or nil.
func (t *Tree) Interfaces() *etree.Element {
	return t.Subtree(TagInterfaces)
}

// Text returns the character data of the root element. For set and text
// renderings this is the whole configuration.
func (t *Tree) Text() string {
	root := t.doc.Root()
	if root == nil {
		return ""
	}
	return root.Text()
}

// String renders the tree as indented XML.
func (t *Tree) String() string {
	return Render(t.doc.Root())
}

// Render serializes an element, and everything below it, as indented XML.
// The element itself is left untouched.
func Render(e *etree.Element) string {
	if e == nil {
		return ""
	}
	doc := etree.NewDocument()
	doc.SetRoot(e.Copy())
	doc.Indent(2)
	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return s
}

// ChildText returns the trimmed text of the first child with the given tag,
// and whether that child exists.
func ChildText(e *etree.Element, tag string) (string, bool) {
	child := e.SelectElement(tag)
	if child == nil {
		return "", false
	}
	return strings.TrimSpace(child.Text()), true
}
