// Package snapshot backs up device configuration before and after a
// migration.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/device"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

// Snapshot suffixes. A device's backup is stored under <hostname>_<suffix>.
const (
	SuffixXML  = "config.xml"
	SuffixText = "config.txt"
)

// Sink persists snapshot content.
type Sink interface {
	Write(ctx context.Context, hostname, suffix string, content []byte) error
}

// Snapshot fetches the set and text renderings of dev's committed
// configuration and writes both to sink. The set rendering is stored as the
// indented XML reply.
func Snapshot(ctx context.Context, dev device.Device, sink Sink) error {
	start := time.Now()
	hostname, err := dev.Hostname(ctx)
	if err != nil {
		return fmt.Errorf("snapshot of %s: %w", dev.Address(), err)
	}

	set, err := dev.GetConfig(ctx, device.FormatSet)
	if err != nil {
		return fmt.Errorf("snapshot of %s: %w", hostname, err)
	}
	if err := sink.Write(ctx, hostname, SuffixXML, []byte(configtree.Render(set.Root()))); err != nil {
		return fmt.Errorf("writing %s_%s: %w", hostname, SuffixXML, err)
	}

	text, err := dev.GetConfig(ctx, device.FormatText)
	if err != nil {
		return fmt.Errorf("snapshot of %s: %w", hostname, err)
	}
	if err := sink.Write(ctx, hostname, SuffixText, []byte(text.Text())); err != nil {
		return fmt.Errorf("writing %s_%s: %w", hostname, SuffixText, err)
	}

	util.WithDevice(hostname).Debugf("Snapshot taken in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
