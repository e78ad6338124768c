package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/newtron-network/tnmigrate/pkg/apply"
	"github.com/newtron-network/tnmigrate/pkg/cli"
	"github.com/newtron-network/tnmigrate/pkg/device"
	"github.com/newtron-network/tnmigrate/pkg/device/junos"
	"github.com/newtron-network/tnmigrate/pkg/inventory"
	"github.com/newtron-network/tnmigrate/pkg/metrics"
	"github.com/newtron-network/tnmigrate/pkg/migrate"
	"github.com/newtron-network/tnmigrate/pkg/snapshot"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

var (
	executeMode      bool
	parallel         int
	templatePath     string
	snapshotRoot     string
	tn3User          string
	tn4User          string
	knownHosts       string
	redisAddr        string
	metricsFile      string
	connectTimeout   time.Duration
	operationTimeout time.Duration
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <inventory>",
	Short: "Migrate every device pair in an inventory",
	Long: `Migrate VLAN and interface configuration for every Tn3/Tn4 pair listed
in the inventory.

The inventory is a CSV file with a header row and one "tn3,tn4" address pair
per line, or a YAML file with a "pairs" list of source/target entries.

Without -x each pair is a dry run: the merged candidate is diffed against the
running configuration and discarded. With -x the candidate is committed and
both devices are backed up under the snapshot root:

  config/tn3/<host>_config.{xml,txt}            source before migration
  config/tn4/previous/<host>_config.{xml,txt}   target before migration
  config/tn4/current/<host>_config.{xml,txt}    target after commit

Passwords are read from TNMIGRATE_TN3_PASSWORD / TNMIGRATE_TN4_PASSWORD or
prompted.

Examples:
  tnmigrate migrate switches.csv
  tnmigrate migrate switches.csv -x
  tnmigrate migrate switches.yaml -x --parallel 4 --template site-a.j2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := inventory.Load(args[0])
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			fmt.Println("Inventory is empty, nothing to migrate")
			return nil
		}

		p := newPrompter()
		srcCreds, err := p.credentials("Tn3", firstNonEmpty(tn3User, userSettings.Tn3User), envTn3Password)
		if err != nil {
			return err
		}
		tgtCreds, err := p.credentials("Tn4", firstNonEmpty(tn4User, userSettings.Tn4User), envTn4Password)
		if err != nil {
			return err
		}

		sinks, closeSinks := snapshotSinks()
		defer closeSinks()

		collector, err := metrics.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}

		if !cmd.Flags().Changed("parallel") {
			parallel = userSettings.GetParallel()
		}
		coordinator := migrate.New(migrate.Config{
			Dialer:       newDialer(),
			SourceCreds:  srcCreds,
			TargetCreds:  tgtCreds,
			Applier:      apply.New(),
			TemplatePath: firstNonEmpty(templatePath, userSettings.GetTemplatePath()),
			Sinks:        sinks,
			Parallel:     parallel,
			Progress:     migrate.NewConsoleProgress(verbose),
			Metrics:      collector,
		})

		outcomes := coordinator.Run(cmd.Context(), pairs, !executeMode)

		if path := firstNonEmpty(metricsFile, userSettings.MetricsFile); path != "" {
			if err := collector.WriteTextfile(path); err != nil {
				util.Warnf("%v", err)
			}
		}

		if !executeMode {
			fmt.Println(cli.Yellow("DRY-RUN: No changes committed. Use -x to execute."))
		}
		if n := migrate.CountFailed(outcomes); n > 0 {
			return fmt.Errorf("%d of %d migration(s) failed", n, len(outcomes))
		}
		return nil
	},
}

// newDialer builds the NETCONF dialer from flags and settings.
func newDialer() device.Dialer {
	connect := connectTimeout
	if connect == 0 {
		connect = userSettings.GetConnectTimeout()
	}
	op := operationTimeout
	if op == 0 {
		op = userSettings.GetOperationTimeout()
	}
	return junos.NewDialer(device.SSHOptions{
		KnownHostsFile: firstNonEmpty(knownHosts, userSettings.KnownHosts),
		Timeout:        connect,
	}, op)
}

// snapshotSinks lays out the three snapshot stages under the snapshot root,
// each mirrored to Redis when an address is configured.
func snapshotSinks() (migrate.Sinks, func()) {
	root := firstNonEmpty(snapshotRoot, userSettings.GetSnapshotRoot())
	stage := func(dir string) snapshot.Sink {
		return snapshot.NewFileSink(filepath.Join(root, dir))
	}
	sinks := migrate.Sinks{
		SourcePre:  stage(snapshot.DirSource),
		TargetPre:  stage(snapshot.DirPrevious),
		TargetPost: stage(snapshot.DirCurrent),
	}

	addr := firstNonEmpty(redisAddr, userSettings.RedisAddr)
	if addr == "" {
		return sinks, func() {}
	}

	var clients []*snapshot.RedisSink
	mirror := func(file snapshot.Sink, site string) snapshot.Sink {
		r := snapshot.NewRedisSink(addr, userSettings.RedisDB, site)
		clients = append(clients, r)
		return snapshot.MultiSink{file, r}
	}
	sinks.SourcePre = mirror(sinks.SourcePre, "tn3")
	sinks.TargetPre = mirror(sinks.TargetPre, "tn4/previous")
	sinks.TargetPost = mirror(sinks.TargetPost, "tn4/current")

	closeAll := func() {
		for _, c := range clients {
			c.Close()
		}
	}
	return sinks, closeAll
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	migrateCmd.Flags().BoolVarP(&executeMode, "execute", "x", false, "Commit changes (default is dry run)")
	migrateCmd.Flags().IntVar(&parallel, "parallel", 1, "Pairs to migrate concurrently")
	migrateCmd.Flags().StringVar(&templatePath, "template", "", "Common template merged before vlans (default common.j2)")
	migrateCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write run metrics to this file (Prometheus textfile format)")
	addDeviceFlags(migrateCmd)
	migrateCmd.Flags().StringVar(&tn3User, "tn3-user", "", "Tn3 username (prompted when empty)")
	migrateCmd.Flags().StringVar(&tn4User, "tn4-user", "", "Tn4 username (prompted when empty)")
}

// addDeviceFlags registers the connection and snapshot flags shared by
// commands that talk to devices.
func addDeviceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&snapshotRoot, "snapshot-root", "", "Directory holding config/tn3 and config/tn4 (default .)")
	cmd.Flags().StringVar(&knownHosts, "known-hosts", "", "known_hosts file for SSH host key verification")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Also store snapshots in Redis at this address")
	cmd.Flags().DurationVar(&connectTimeout, "connect-timeout", 0, "Connection timeout (default 30s)")
	cmd.Flags().DurationVar(&operationTimeout, "timeout", 0, "Per-operation timeout (default 2m)")
}
