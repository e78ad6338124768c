package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettings_Defaults(t *testing.T) {
	s := &Settings{}

	if got := s.GetTemplatePath(); got != "common.j2" {
		t.Errorf("GetTemplatePath() = %q, want %q", got, "common.j2")
	}
	if got := s.GetSnapshotRoot(); got != "." {
		t.Errorf("GetSnapshotRoot() = %q, want %q", got, ".")
	}
	if got := s.GetConnectTimeout(); got != 30*time.Second {
		t.Errorf("GetConnectTimeout() = %v", got)
	}
	if got := s.GetOperationTimeout(); got != 120*time.Second {
		t.Errorf("GetOperationTimeout() = %v", got)
	}
	if got := s.GetParallel(); got != 1 {
		t.Errorf("GetParallel() = %d, want 1", got)
	}
}

func TestSettings_SetGet(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{key: "template_path", value: "/etc/tnmigrate/common.j2"},
		{key: "snapshot_root", value: "/var/lib/tnmigrate"},
		{key: "known_hosts", value: "/root/.ssh/known_hosts"},
		{key: "redis_addr", value: "127.0.0.1:6379"},
		{key: "redis_db", value: "3"},
		{key: "tn3_user", value: "netops"},
		{key: "connect_timeout", value: "45s"},
		{key: "operation_timeout", value: "2m"},
		{key: "parallel", value: "4"},
		{key: "connect_timeout", value: "soon", wantErr: true},
		{key: "operation_timeout", value: "-1s", wantErr: true},
		{key: "parallel", value: "many", wantErr: true},
		{key: "network", value: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			s := &Settings{}
			err := s.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := s.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got != tt.value {
				t.Errorf("Get() = %q, want %q", got, tt.value)
			}
		})
	}
}

func TestSettings_TypedGetters(t *testing.T) {
	s := &Settings{}
	s.Set("connect_timeout", "45s")
	s.Set("operation_timeout", "2m")
	s.Set("parallel", "4")

	if s.GetConnectTimeout() != 45*time.Second {
		t.Errorf("GetConnectTimeout() = %v", s.GetConnectTimeout())
	}
	if s.GetOperationTimeout() != 2*time.Minute {
		t.Errorf("GetOperationTimeout() = %v", s.GetOperationTimeout())
	}
	if s.GetParallel() != 4 {
		t.Errorf("GetParallel() = %d", s.GetParallel())
	}

	// Hand-edited garbage falls back to the default.
	s.ConnectTimeout = "later"
	if s.GetConnectTimeout() != DefaultConnectTimeout {
		t.Errorf("GetConnectTimeout() = %v, want default", s.GetConnectTimeout())
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != len(fields) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(fields))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
	s := &Settings{}
	for _, k := range keys {
		if _, err := s.Get(k); err != nil {
			t.Errorf("Get(%q) error: %v", k, err)
		}
	}
}

func TestSettings_Clear(t *testing.T) {
	s := &Settings{TemplatePath: "x", RedisAddr: "y", Parallel: 3}
	s.Clear()
	if *s != (Settings{}) {
		t.Errorf("Clear() left %+v", *s)
	}
}

func TestSettings_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")

	s := &Settings{TemplatePath: "/etc/tnmigrate/common.j2", RedisAddr: "127.0.0.1:6379", Parallel: 2}
	if err := s.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("settings file mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	if *loaded != *s {
		t.Errorf("LoadFrom() = %+v, want %+v", *loaded, *s)
	}
}

func TestLoadFrom_Errors(t *testing.T) {
	dir := t.TempDir()

	s, err := LoadFrom(filepath.Join(dir, "missing.json"))
	if err != nil || s == nil {
		t.Errorf("LoadFrom() on missing file = %v, %v; want empty settings", s, err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadFrom(bad); err == nil {
		t.Error("LoadFrom() should fail on invalid JSON")
	}

	if _, err := LoadFrom(dir); err == nil {
		t.Error("LoadFrom() should fail when path is a directory")
	}
}

func TestSaveTo_MkdirError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	os.WriteFile(blocker, []byte("x"), 0644)

	s := &Settings{}
	if err := s.SaveTo(filepath.Join(blocker, "sub", "settings.json")); err == nil {
		t.Error("SaveTo() should fail when a path component is a file")
	}
}

func TestDefaultSettingsPath(t *testing.T) {
	t.Setenv("HOME", "/home/netops")
	if got := DefaultSettingsPath(); got != "/home/netops/.tnmigrate/settings.json" {
		t.Errorf("DefaultSettingsPath() = %q", got)
	}
	if got := DefaultAuditLog(); got != "/home/netops/.tnmigrate/audit.log" {
		t.Errorf("DefaultAuditLog() = %q", got)
	}

	t.Setenv("HOME", "")
	if got := DefaultSettingsPath(); got != "tnmigrate_settings.json" {
		t.Errorf("DefaultSettingsPath() with no HOME = %q", got)
	}
}
