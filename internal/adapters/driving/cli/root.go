// Package cli implements the pimsearch command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pimsearch/internal/logger"
)

var (
	version   = "dev"
	verbose   bool
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "pimsearch",
	Short: "Search local mail and calendars",
	Long: `pimsearch indexes mail from .eml files and maildirs, keeps calendar
events from .ics files or Google Calendar, and searches both from the
command line, a terminal UI or an MCP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return ensureServices(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep all state in memory for this run")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}
