// Package audit records migrations and snapshots in an append-only log.
package audit

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Operations recorded in the audit log.
const (
	OpMigrate  = "migrate"
	OpSnapshot = "snapshot"
)

// Event is one auditable action against a device pair or a single device.
type Event struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	User        string        `json:"user"`
	Operation   string        `json:"operation"`
	Source      string        `json:"source,omitempty"`
	Target      string        `json:"target,omitempty"`
	Device      string        `json:"device,omitempty"` // resolved hostname, when known
	Status      string        `json:"status,omitempty"`
	Stage       string        `json:"stage,omitempty"` // failing stage
	Warnings    []string      `json:"warnings,omitempty"`
	Dropped     []string      `json:"dropped,omitempty"`
	Renamed     []string      `json:"renamed,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
	ExecuteMode bool          `json:"execute_mode"` // true if -x was used
	DryRun      bool          `json:"dry_run"`
	Duration    time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events
type Filter struct {
	// Device matches the source, target or resolved hostname.
	Device      string
	User        string
	Operation   string
	Status      string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates a new audit event
func NewEvent(user, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Operation: operation,
	}
}

// WithPair sets both ends of a migration.
func (e *Event) WithPair(source, target string) *Event {
	e.Source = source
	e.Target = target
	return e
}

// WithDevice sets the resolved hostname.
func (e *Event) WithDevice(hostname string) *Event {
	e.Device = hostname
	return e
}

// WithStatus sets the outcome status and, for failures, the failing stage.
func (e *Event) WithStatus(status, stage string) *Event {
	e.Status = status
	e.Stage = stage
	return e
}

// WithWarnings records transformation warnings.
func (e *Event) WithWarnings(warnings []string) *Event {
	e.Warnings = warnings
	return e
}

// WithInterfaces records dropped and renamed interfaces.
func (e *Event) WithInterfaces(dropped, renamed []string) *Event {
	e.Dropped = dropped
	e.Renamed = renamed
	return e
}

// WithSuccess marks the event as successful
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets the operation duration
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

// WithExecuteMode marks if execute mode was used
func (e *Event) WithExecuteMode(execute bool) *Event {
	e.ExecuteMode = execute
	e.DryRun = !execute
	return e
}

var idSeq atomic.Uint64

// generateID is unique within a process even for events created in the same
// nanosecond by parallel migrations.
func generateID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), idSeq.Add(1))
}
