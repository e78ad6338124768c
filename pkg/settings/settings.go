// Package settings manages persistent user settings for the tnmigrate CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Built-in defaults, used when neither a flag nor a setting is given.
const (
	DefaultTemplatePath     = "common.j2"
	DefaultSnapshotRoot     = "."
	DefaultConnectTimeout   = 30 * time.Second
	DefaultOperationTimeout = 120 * time.Second
	DefaultParallel         = 1
)

// Settings holds persistent user preferences. Empty fields fall back to the
// built-in defaults through the getters.
type Settings struct {
	// TemplatePath is the common template merged before vlans and interfaces
	TemplatePath string `json:"template_path,omitempty"`

	// SnapshotRoot is the directory holding config/tn3 and config/tn4
	SnapshotRoot string `json:"snapshot_root,omitempty"`

	// AuditLog overrides the audit log location
	AuditLog string `json:"audit_log,omitempty"`

	// KnownHosts enables SSH host key verification
	KnownHosts string `json:"known_hosts,omitempty"`

	// RedisAddr, when set, mirrors snapshots into Redis
	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`

	// MetricsFile is where run metrics are written in textfile format
	MetricsFile string `json:"metrics_file,omitempty"`

	// Tn3User and Tn4User pre-fill the credential prompts
	Tn3User string `json:"tn3_user,omitempty"`
	Tn4User string `json:"tn4_user,omitempty"`

	// Durations in Go syntax, e.g. "45s"
	ConnectTimeout   string `json:"connect_timeout,omitempty"`
	OperationTimeout string `json:"operation_timeout,omitempty"`

	Parallel int `json:"parallel,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tnmigrate_settings.json"
	}
	return filepath.Join(home, ".tnmigrate", "settings.json")
}

// DefaultAuditLog returns the audit log location used when none is set.
func DefaultAuditLog() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tnmigrate_audit.log"
	}
	return filepath.Join(home, ".tnmigrate", "audit.log")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// GetTemplatePath returns the template path (with fallback)
func (s *Settings) GetTemplatePath() string {
	if s.TemplatePath != "" {
		return s.TemplatePath
	}
	return DefaultTemplatePath
}

// GetSnapshotRoot returns the snapshot root (with fallback)
func (s *Settings) GetSnapshotRoot() string {
	if s.SnapshotRoot != "" {
		return s.SnapshotRoot
	}
	return DefaultSnapshotRoot
}

// GetAuditLog returns the audit log path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return DefaultAuditLog()
}

// GetConnectTimeout returns the connect timeout. Unparseable values fall
// back to the default; Set rejects them up front.
func (s *Settings) GetConnectTimeout() time.Duration {
	return durationOr(s.ConnectTimeout, DefaultConnectTimeout)
}

// GetOperationTimeout returns the per-RPC timeout.
func (s *Settings) GetOperationTimeout() time.Duration {
	return durationOr(s.OperationTimeout, DefaultOperationTimeout)
}

// GetParallel returns how many pairs migrate at once.
func (s *Settings) GetParallel() int {
	if s.Parallel > 0 {
		return s.Parallel
	}
	return DefaultParallel
}

func durationOr(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return def
}

type field struct {
	get func(*Settings) string
	set func(*Settings, string) error
}

func stringField(p func(*Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *p(s) },
		set: func(s *Settings, v string) error { *p(s) = v; return nil },
	}
}

func durationField(p func(*Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *p(s) },
		set: func(s *Settings, v string) error {
			if d, err := time.ParseDuration(v); err != nil || d <= 0 {
				return fmt.Errorf("invalid duration %q", v)
			}
			*p(s) = v
			return nil
		},
	}
}

func intField(p func(*Settings) *int) field {
	return field{
		get: func(s *Settings) string {
			if *p(s) == 0 {
				return ""
			}
			return strconv.Itoa(*p(s))
		},
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid number %q", v)
			}
			*p(s) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"template_path":     stringField(func(s *Settings) *string { return &s.TemplatePath }),
	"snapshot_root":     stringField(func(s *Settings) *string { return &s.SnapshotRoot }),
	"audit_log":         stringField(func(s *Settings) *string { return &s.AuditLog }),
	"known_hosts":       stringField(func(s *Settings) *string { return &s.KnownHosts }),
	"redis_addr":        stringField(func(s *Settings) *string { return &s.RedisAddr }),
	"redis_db":          intField(func(s *Settings) *int { return &s.RedisDB }),
	"metrics_file":      stringField(func(s *Settings) *string { return &s.MetricsFile }),
	"tn3_user":          stringField(func(s *Settings) *string { return &s.Tn3User }),
	"tn4_user":          stringField(func(s *Settings) *string { return &s.Tn4User }),
	"connect_timeout":   durationField(func(s *Settings) *string { return &s.ConnectTimeout }),
	"operation_timeout": durationField(func(s *Settings) *string { return &s.OperationTimeout }),
	"parallel":          intField(func(s *Settings) *int { return &s.Parallel }),
}

// Keys lists the setting names accepted by Get and Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the stored value of a setting, empty when unset.
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown setting: %s", key)
	}
	return f.get(s), nil
}

// Set validates and stores a setting.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}
	if err := f.set(s, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
