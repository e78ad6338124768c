package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/device"
)

type fakeDevice struct {
	hostname string
	configs  map[device.Format]string
	fetched  []device.Format
}

func (d *fakeDevice) Address() string { return "10.0.3.1" }

func (d *fakeDevice) Hostname(context.Context) (string, error) {
	if d.hostname == "" {
		return "", errors.New("facts unavailable")
	}
	return d.hostname, nil
}

func (d *fakeDevice) GetConfig(_ context.Context, format device.Format) (*configtree.Tree, error) {
	d.fetched = append(d.fetched, format)
	raw, ok := d.configs[format]
	if !ok {
		return nil, errors.New("rpc failed")
	}
	return configtree.Parse(raw)
}

func (d *fakeDevice) EditSession() device.EditSession { return nil }

func (d *fakeDevice) Close() error { return nil }

// memSink records writes in memory.
type memSink struct {
	files map[string]string
	err   error
}

func (m *memSink) Write(_ context.Context, hostname, suffix string, content []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.files == nil {
		m.files = map[string]string{}
	}
	m.files[hostname+"_"+suffix] = string(content)
	return nil
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		hostname: "tn3-core-1",
		configs: map[device.Format]string{
			device.FormatSet:  "<configuration-set>set system host-name tn3-core-1\nset vlans v10 vlan-id 10</configuration-set>",
			device.FormatText: "<configuration-text>system {\n    host-name tn3-core-1;\n}</configuration-text>",
		},
	}
}

func TestSnapshot(t *testing.T) {
	dev := newFakeDevice()
	sink := &memSink{}

	if err := Snapshot(context.Background(), dev, sink); err != nil {
		t.Fatalf("Snapshot() error: %v", err)
	}

	if len(dev.fetched) != 2 || dev.fetched[0] != device.FormatSet || dev.fetched[1] != device.FormatText {
		t.Errorf("fetched = %v, want [set text]", dev.fetched)
	}
	xml := sink.files["tn3-core-1_config.xml"]
	if !strings.HasPrefix(xml, "<configuration-set>") || !strings.Contains(xml, "set vlans v10 vlan-id 10") {
		t.Errorf("config.xml = %q", xml)
	}
	if got := sink.files["tn3-core-1_config.txt"]; got != "system {\n    host-name tn3-core-1;\n}" {
		t.Errorf("config.txt = %q", got)
	}
}

func TestSnapshot_Errors(t *testing.T) {
	t.Run("hostname", func(t *testing.T) {
		dev := newFakeDevice()
		dev.hostname = ""
		if err := Snapshot(context.Background(), dev, &memSink{}); err == nil {
			t.Fatal("expected error")
		}
		if len(dev.fetched) != 0 {
			t.Error("configuration should not be fetched without a hostname")
		}
	})

	t.Run("fetch", func(t *testing.T) {
		dev := newFakeDevice()
		delete(dev.configs, device.FormatText)
		sink := &memSink{}
		if err := Snapshot(context.Background(), dev, sink); err == nil {
			t.Fatal("expected error")
		}
		if _, ok := sink.files["tn3-core-1_config.xml"]; !ok {
			t.Error("set rendering should have been written before the failure")
		}
	})

	t.Run("sink", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Snapshot(context.Background(), newFakeDevice(), &memSink{err: cause})
		if !errors.Is(err, cause) {
			t.Fatalf("Snapshot() error = %v, want %v", err, cause)
		}
	})
}

func TestFileSink(t *testing.T) {
	root := t.TempDir()
	sink := NewFileSink(filepath.Join(root, DirPrevious))

	if err := sink.Write(context.Background(), "tn4-a", SuffixText, []byte("old")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := sink.Write(context.Background(), "tn4-a", SuffixText, []byte("new")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	path := filepath.Join(root, "config", "tn4", "previous", "tn4-a_config.txt")
	if sink.Path("tn4-a", SuffixText) != path {
		t.Errorf("Path() = %q, want %q", sink.Path("tn4-a", SuffixText), path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestFileSink_SanitizesHostname(t *testing.T) {
	sink := NewFileSink(t.TempDir())
	if err := sink.Write(context.Background(), "../evil host", SuffixXML, []byte("x")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if filepath.Dir(sink.Path("../evil host", SuffixXML)) != sink.Dir {
		t.Errorf("Path() escapes the sink directory: %s", sink.Path("../evil host", SuffixXML))
	}
}

func TestMultiSink(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	failing := &memSink{err: errors.New("redis down")}

	err := MultiSink{a, failing, b}.Write(context.Background(), "tn4-a", SuffixText, []byte("cfg"))
	if err == nil || !strings.Contains(err.Error(), "redis down") {
		t.Fatalf("Write() error = %v", err)
	}
	if a.files["tn4-a_config.txt"] != "cfg" || b.files["tn4-a_config.txt"] != "cfg" {
		t.Error("healthy sinks should still receive the snapshot")
	}

	if err := (MultiSink{a, b}).Write(context.Background(), "tn4-a", SuffixXML, nil); err != nil {
		t.Errorf("Write() error: %v", err)
	}
}
