// Tnmigrate - Tn3 to Tn4 switch configuration migration
//
// Reads the VLAN and interface configuration of each Tn3 switch, rewrites it
// for the Tn4 generation and merges it into the paired Tn4 switch inside an
// exclusive, rollback-capable configuration session.
//
// Migrations are dry runs by default: the candidate diff is printed and the
// session is rolled back. Use -x to commit.
//
// Examples:
//
//	tnmigrate migrate switches.csv                  # dry run every pair
//	tnmigrate migrate switches.csv -x --parallel 4  # commit, 4 pairs at a time
//	tnmigrate transform saved-config.xml            # offline transform
//	tnmigrate snapshot 10.0.4.1 --dir backups       # one-off backup
//	tnmigrate audit list --failures
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"os/user"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newtron-network/tnmigrate/pkg/audit"
	"github.com/newtron-network/tnmigrate/pkg/settings"
	"github.com/newtron-network/tnmigrate/pkg/tracing"
	"github.com/newtron-network/tnmigrate/pkg/util"
	"github.com/newtron-network/tnmigrate/pkg/version"
)

var (
	// Global option flags
	verbose     bool
	jsonLogs    bool
	jsonOutput  bool
	settingsArg string

	// Global state
	userSettings   *settings.Settings
	auditLogger    *audit.FileLogger
	tracerShutdown func(context.Context) error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	shutdown(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "tnmigrate",
	Short:             "Tn3 to Tn4 switch configuration migration",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Tnmigrate migrates VLAN and interface configuration from Tn3 switches
to their Tn4 replacements.

Migrations preview changes by default; use -x to commit.

  tnmigrate migrate <inventory> [-x] [--parallel N]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		util.ConfigureLogging(verbose, jsonLogs)

		var err error
		userSettings, err = loadSettings()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		if isSettingsOrHelp(cmd) {
			return nil
		}

		auditLogger, err = audit.NewFileLogger(userSettings.GetAuditLog(), audit.RotationConfig{
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxBackups: 10,
		})
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		tracerShutdown, err = tracing.Init(cmd.Context(), tracing.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		return nil
	},
}

// shutdown flushes spans and closes the audit log. It runs after every
// command, failed or not.
func shutdown(ctx context.Context) {
	tracing.Shutdown(ctx, tracerShutdown)
	if auditLogger != nil {
		auditLogger.Close()
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Emit logs as JSON")
	rootCmd.PersistentFlags().StringVar(&settingsArg, "settings", "", "Settings file (default ~/.tnmigrate/settings.json)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "migrate", Title: "Migration:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)
	for _, cmd := range []*cobra.Command{migrateCmd, transformCmd, snapshotCmd} {
		cmd.GroupID = "migrate"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("tnmigrate dev build (set version info with -ldflags)")
			return
		}
		fmt.Printf("tnmigrate %s\n", version.Info())
	},
}

func settingsPath() string {
	if settingsArg != "" {
		return settingsArg
	}
	return settings.DefaultSettingsPath()
}

func loadSettings() (*settings.Settings, error) {
	return settings.LoadFrom(settingsPath())
}

// isSettingsOrHelp reports whether cmd needs no audit log or tracing.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "help", "version":
			return true
		}
	}
	return false
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "unknown"
}
