package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/tnmigrate/pkg/audit"
	"github.com/newtron-network/tnmigrate/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the audit log of migrations and snapshots.

Every migrated pair is logged with its user, addresses, status, failing
stage, warnings and dropped or renamed interfaces.

Examples:
  tnmigrate audit list --device 10.0.4.1
  tnmigrate audit list --last 24h
  tnmigrate audit list --failures`,
}

var (
	auditDevice   string
	auditUser     string
	auditStatus   string
	auditLast     string
	auditLimit    int
	auditFailures bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Device:      auditDevice,
			User:        auditUser,
			Status:      auditStatus,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}

		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable("TIMESTAMP", "USER", "OPERATION", "SOURCE", "TARGET", "HOST", "STATUS", "STAGE", "WARN")
		for _, event := range events {
			var status string
			switch {
			case !event.Success:
				status = cli.Red("failed")
			case event.DryRun:
				status = cli.Yellow("dry-run")
			default:
				status = cli.Green("ok")
			}
			t.Row(
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.User,
				event.Operation,
				dash(event.Source),
				dash(event.Target),
				dash(event.Device),
				status,
				dash(event.Stage),
				fmt.Sprint(len(event.Warnings)),
			)
		}
		t.Flush()
		return nil
	},
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	auditListCmd.Flags().StringVar(&auditDevice, "device", "", "Filter by source, target or hostname")
	auditListCmd.Flags().StringVar(&auditUser, "user", "", "Filter by user")
	auditListCmd.Flags().StringVar(&auditStatus, "status", "", "Filter by status (succeeded, dry-run, failed)")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed operations")
	auditListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditListCmd)
}
