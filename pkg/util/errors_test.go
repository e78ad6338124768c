package util

import (
	"errors"
	"strings"
	"testing"
)

func TestConnectionError(t *testing.T) {
	cause := errors.New("ssh: handshake failed")
	err := &ConnectionError{Address: "10.0.0.1", Err: cause}

	if !strings.Contains(err.Error(), "10.0.0.1") {
		t.Errorf("Error message should contain address: %s", err.Error())
	}
	if !errors.Is(err, ErrConnect) {
		t.Error("ConnectionError should unwrap to ErrConnect")
	}
	if !errors.Is(err, cause) {
		t.Error("ConnectionError should unwrap to its cause")
	}
}

func TestMalformedInterfaceNameError(t *testing.T) {
	err := &MalformedInterfaceNameError{Index: 3, Name: "ge-0/0", Reason: "expected 3 '/' segments"}

	msg := err.Error()
	if !strings.Contains(msg, "#3") {
		t.Errorf("Error message should contain node index: %s", msg)
	}
	if !strings.Contains(msg, `"ge-0/0"`) {
		t.Errorf("Error message should contain name: %s", msg)
	}
	if !errors.Is(err, ErrMalformedInterfaceName) {
		t.Error("MalformedInterfaceNameError should unwrap to ErrMalformedInterfaceName")
	}
}

func TestConfigLoadErrorStage(t *testing.T) {
	err := &ConfigLoadError{Device: "tn4-a", Stage: "vlans", Err: errors.New("syntax error")}

	if !strings.Contains(err.Error(), "loading vlans on tn4-a") {
		t.Errorf("unexpected message: %s", err.Error())
	}

	var loadErr *ConfigLoadError
	wrapped := errors.Join(errors.New("migration aborted"), err)
	if !errors.As(wrapped, &loadErr) {
		t.Fatal("errors.As should find ConfigLoadError")
	}
	if loadErr.Stage != "vlans" {
		t.Errorf("Stage = %q, want vlans", loadErr.Stage)
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrConnect,
		ErrNotConnected,
		ErrMalformedInterfaceName,
		ErrLocked,
		ErrConfigLoad,
		ErrCommit,
		ErrTimeout,
		ErrValidationFailed,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v == %v", err1, err2)
			}
		}
	}
}

func TestErrorsIsWrapping(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"LockError", &LockError{Device: "d", Err: cause}, ErrLocked},
		{"ConfigLoadError", &ConfigLoadError{Device: "d", Stage: "template", Err: cause}, ErrConfigLoad},
		{"CommitError", &CommitError{Device: "d", Err: cause}, ErrCommit},
		{"TimeoutError", &TimeoutError{Device: "d", Operation: "commit", Err: cause}, ErrTimeout},
		{"ValidationError", NewValidationError("msg"), ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%s should wrap %v", tt.name, tt.sentinel)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("row 2: missing target address")
		if !strings.Contains(err.Error(), "missing target address") {
			t.Errorf("Error message should contain the error: %s", err.Error())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("row 2: bad", "row 5: bad", "row 9: bad")
		msg := err.Error()
		if !strings.Contains(msg, "row 2") || !strings.Contains(msg, "row 5") || !strings.Contains(msg, "row 9") {
			t.Errorf("Error message should contain all errors: %s", msg)
		}
	})
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(true, "this should not appear")

		if v.HasErrors() {
			t.Error("Should not have errors when all conditions are true")
		}
		if err := v.Build(); err != nil {
			t.Errorf("Build() should return nil when no errors: %v", err)
		}
	})

	t.Run("with errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(false, "first error")
		v.Add(true, "this passes")
		v.AddErrorf("formatted error: %d", 42)

		err := v.Build()
		if err == nil {
			t.Fatal("Build() should return error")
		}
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("Expected *ValidationError, got %T", err)
		}
		if len(validationErr.Errors) != 2 {
			t.Errorf("Expected 2 errors, got %d", len(validationErr.Errors))
		}
	})
}
