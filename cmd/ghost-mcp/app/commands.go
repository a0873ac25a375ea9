// Package app provides the entry point for the ghost-mcp command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "ghost-mcp",
	DisableAutoGenTag: true,
	Short:             "ghost-mcp exposes a Ghost site to MCP clients",
	Long: `ghost-mcp is an MCP (Model Context Protocol) server for the Ghost publishing
platform. It exposes posts, tags, members, users and image uploads as MCP
tools, backed by the Ghost Admin API, and serves a small REST surface for
health checks and metrics.

All calls to Ghost run behind a circuit breaker with retry and backoff, so
a flaky or rate-limited upstream degrades gracefully instead of cascading.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the ghost-mcp CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
