// Package main is the entry point for the ghost-mcp CLI.
package main

import (
	"os"

	"github.com/ghost-mcp/ghost-mcp/cmd/ghost-mcp/app"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
