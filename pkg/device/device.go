// Package device defines the contracts the migration core consumes from a
// network device: a connection that can fetch configuration, and an
// exclusive edit session that merges and commits candidate configuration.
package device

import (
	"context"

	"github.com/beevik/etree"

	"github.com/newtron-network/tnmigrate/pkg/configtree"
)

// Format selects a configuration rendering.
type Format string

const (
	// FormatXML is the structured element tree.
	FormatXML Format = "xml"
	// FormatSet is "set"-style line commands.
	FormatSet Format = "set"
	// FormatText is the curly-brace text rendering.
	FormatText Format = "text"
)

// Credentials authenticate one device generation. They are collected once
// per process and passed explicitly to whatever dials devices.
type Credentials struct {
	User     string
	Password string
}

// Dialer opens connections to devices.
type Dialer interface {
	Dial(ctx context.Context, address string, creds Credentials) (Device, error)
}

// Device is an open connection to one switch.
type Device interface {
	// Address is the address the device was dialed on.
	Address() string
	// Hostname returns the device's configured host name.
	Hostname(ctx context.Context) (string, error)
	// GetConfig fetches the committed configuration in the given rendering.
	GetConfig(ctx context.Context, format Format) (*configtree.Tree, error)
	// EditSession returns a configuration session on this connection.
	// Nothing is locked until Lock is called.
	EditSession() EditSession
	Close() error
}

// EditSession is an exclusive candidate-configuration transaction.
type EditSession interface {
	Lock(ctx context.Context) error
	// RollbackToBaseline discards uncommitted candidate changes.
	RollbackToBaseline(ctx context.Context) error
	// MergeText merges a textual fragment (text, set or xml rendering).
	MergeText(ctx context.Context, content string, format Format) error
	// MergeTree merges a configuration subtree such as <vlans>.
	MergeTree(ctx context.Context, subtree *etree.Element) error
	// Diff returns the candidate-vs-baseline diff; empty when identical.
	Diff(ctx context.Context) (string, error)
	Commit(ctx context.Context) error
	Unlock(ctx context.Context) error
}
