package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teamdir/groupsync/pkg/logging"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	dryRun     bool

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "groupsync",
	Short: "Sync distribution groups from the source directory to the target service",
	Long: `Groupsync reconciles dynamic distribution groups and their memberships
from the authoritative source directory into the target directory service.

Groups owned by the engine are marked with a sync tag in their externalId;
everything else in the target organization is left untouched. Run with
--dry-run to see exactly what a live run would change.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.Configure(logLevel, logFormat)
	},
}

// Execute runs the root command with signal-aware context.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (settings also come from the environment and .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "log format (auto, console, json)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report changes without applying them")
}
