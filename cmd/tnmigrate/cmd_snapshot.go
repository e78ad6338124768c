package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/tnmigrate/pkg/audit"
	"github.com/newtron-network/tnmigrate/pkg/snapshot"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

var (
	snapshotDir        string
	snapshotGeneration string
	snapshotUser       string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <address>",
	Short: "Back up a device's configuration",
	Long: `Fetch the set and text renderings of a device's committed configuration
and write them to <dir>/<hostname>_config.xml and <dir>/<hostname>_config.txt.

--generation selects which credentials are used (tn3 or tn4).

Examples:
  tnmigrate snapshot 10.0.4.1 --dir backups
  tnmigrate snapshot 10.0.3.1 --generation tn3 --redis 127.0.0.1:6379`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]

		var user, env, label string
		switch strings.ToLower(snapshotGeneration) {
		case "tn3":
			user, env, label = firstNonEmpty(snapshotUser, userSettings.Tn3User), envTn3Password, "Tn3"
		case "tn4":
			user, env, label = firstNonEmpty(snapshotUser, userSettings.Tn4User), envTn4Password, "Tn4"
		default:
			return fmt.Errorf("unknown generation %q (valid: tn3, tn4)", snapshotGeneration)
		}
		creds, err := newPrompter().credentials(label, user, env)
		if err != nil {
			return err
		}

		var sink snapshot.Sink = snapshot.NewFileSink(snapshotDir)
		if addr := firstNonEmpty(redisAddr, userSettings.RedisAddr); addr != "" {
			r := snapshot.NewRedisSink(addr, userSettings.RedisDB, "manual")
			defer r.Close()
			sink = snapshot.MultiSink{sink, r}
		}

		start := time.Now()
		event := audit.NewEvent(currentUser(), audit.OpSnapshot).WithPair("", address).WithExecuteMode(true)
		defer func() {
			event.WithDuration(time.Since(start))
			if err := audit.Log(event); err != nil {
				util.Warnf("Failed to write audit event: %v", err)
			}
		}()

		dev, err := newDialer().Dial(cmd.Context(), address, creds)
		if err != nil {
			event.WithError(err)
			return err
		}
		defer dev.Close()

		if err := snapshot.Snapshot(cmd.Context(), dev, sink); err != nil {
			event.WithError(err)
			return err
		}
		hostname, _ := dev.Hostname(cmd.Context())
		event.WithDevice(hostname).WithSuccess()

		fs := snapshot.NewFileSink(snapshotDir)
		fmt.Printf("Saved %s\n", fs.Path(hostname, snapshot.SuffixXML))
		fmt.Printf("Saved %s\n", fs.Path(hostname, snapshot.SuffixText))
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotDir, "dir", ".", "Directory to write the snapshot to")
	snapshotCmd.Flags().StringVar(&snapshotGeneration, "generation", "tn4", "Device generation: tn3 or tn4")
	snapshotCmd.Flags().StringVar(&snapshotUser, "user", "", "Username (prompted when empty)")
	snapshotCmd.Flags().StringVar(&knownHosts, "known-hosts", "", "known_hosts file for SSH host key verification")
	snapshotCmd.Flags().StringVar(&redisAddr, "redis", "", "Also store the snapshot in Redis at this address")
	snapshotCmd.Flags().DurationVar(&connectTimeout, "connect-timeout", 0, "Connection timeout (default 30s)")
	snapshotCmd.Flags().DurationVar(&operationTimeout, "timeout", 0, "Per-operation timeout (default 2m)")
}
