// Package util provides logging helpers and the error taxonomy shared by the
// migration packages.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, one per failure class of a device-pair migration
var (
	ErrConnect                = errors.New("device connection failed")
	ErrNotConnected           = errors.New("device not connected")
	ErrMalformedInterfaceName = errors.New("malformed interface name")
	ErrLocked                 = errors.New("configuration database locked")
	ErrConfigLoad             = errors.New("configuration load rejected")
	ErrCommit                 = errors.New("commit rejected")
	ErrTimeout                = errors.New("operation timed out")
	ErrValidationFailed       = errors.New("validation failed")
)

// ConnectionError reports an unreachable device or an authentication failure.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() []error {
	return []error{ErrConnect, e.Err}
}

// MalformedInterfaceNameError identifies an interface node whose name does not
// follow the <type>-<slot>/<module>/<port> form.
type MalformedInterfaceNameError struct {
	Index  int    // position of the interface node in the original collection
	Name   string // name text as found, empty when the name element is missing
	Reason string
}

func (e *MalformedInterfaceNameError) Error() string {
	return fmt.Sprintf("interface #%d name %q: %s", e.Index, e.Name, e.Reason)
}

func (e *MalformedInterfaceNameError) Unwrap() error {
	return ErrMalformedInterfaceName
}

// LockError reports that the exclusive configuration session could not be
// acquired, usually because another session holds it.
type LockError struct {
	Device string
	Err    error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("locking configuration on %s: %v", e.Device, e.Err)
}

func (e *LockError) Unwrap() []error {
	return []error{ErrLocked, e.Err}
}

// ConfigLoadError reports a rejected merge. Stage names the fragment that was
// being loaded so the caller knows how far the session progressed.
type ConfigLoadError struct {
	Device string
	Stage  string
	Err    error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("loading %s on %s: %v", e.Stage, e.Device, e.Err)
}

func (e *ConfigLoadError) Unwrap() []error {
	return []error{ErrConfigLoad, e.Err}
}

// CommitError reports a commit rejected by the device (validation failure).
type CommitError struct {
	Device string
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("committing on %s: %v", e.Device, e.Err)
}

func (e *CommitError) Unwrap() []error {
	return []error{ErrCommit, e.Err}
}

// TimeoutError reports a device round-trip that exceeded its deadline.
type TimeoutError struct {
	Device    string
	Operation string
	Err       error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s on %s timed out: %v", e.Operation, e.Device, e.Err)
}

func (e *TimeoutError) Unwrap() []error {
	return []error{ErrTimeout, e.Err}
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
