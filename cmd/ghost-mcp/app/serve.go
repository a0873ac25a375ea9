package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ghost-mcp/ghost-mcp/pkg/api"
	"github.com/ghost-mcp/ghost-mcp/pkg/config"
	"github.com/ghost-mcp/ghost-mcp/pkg/ghost"
	"github.com/ghost-mcp/ghost-mcp/pkg/logger"
	mcpserver "github.com/ghost-mcp/ghost-mcp/pkg/mcp/server"
	"github.com/ghost-mcp/ghost-mcp/pkg/telemetry"
)

var (
	serveMCPHost string
	serveMCPPort string
	serveAPIHost string
	serveAPIPort string
)

// newServeCommand creates the 'serve' subcommand
func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP and REST API servers",
		Long: `Start the MCP server on the streamable HTTP transport and the REST API
server for health checks, metrics and content routes.

Ghost credentials are read from the GHOST_URL and GHOST_ADMIN_API_KEY
environment variables. Listen addresses can be set via flags or the
MCP_HOST/MCP_PORT and API_HOST/API_PORT environment variables.`,
		RunE: serveCmdFunc,
	}

	cmd.Flags().StringVar(&serveMCPHost, "mcp-host", "", "Host for the MCP server (overrides MCP_HOST)")
	cmd.Flags().StringVar(&serveMCPPort, "mcp-port", "", "Port for the MCP server (overrides MCP_PORT)")
	cmd.Flags().StringVar(&serveAPIHost, "api-host", "", "Host for the REST API server (overrides API_HOST)")
	cmd.Flags().StringVar(&serveAPIPort, "api-port", "", "Port for the REST API server (overrides API_PORT)")

	return cmd
}

// serveCmdFunc is the main function for the serve command
func serveCmdFunc(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	metrics := telemetry.NewMetrics()

	svc, err := ghost.NewService(cfg, metrics)
	if err != nil {
		return err
	}

	mcpSrv := mcpserver.New(cfg, svc, metrics)
	mcpAddr := fmt.Sprintf("%s:%s", cfg.MCPHost, cfg.MCPPort)
	httpServer := &http.Server{
		Addr:              mcpAddr,
		Handler:           mcpSrv.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
	}

	go func() {
		logger.Infof("Starting ghost-mcp MCP server on http://%s/mcp", mcpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("MCP server error: %v", err)
			cancel()
		}
	}()

	apiAddr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	router := api.NewRouter(cfg, svc, metrics)
	apiErrCh := make(chan error, 1)
	go func() {
		apiErrCh <- api.Serve(ctx, apiAddr, router)
	}()

	select {
	case <-sigChan:
		logger.Info("Shutting down...")
	case <-ctx.Done():
	case err := <-apiErrCh:
		if err != nil {
			logger.Errorf("API server error: %v", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	return httpServer.Shutdown(shutdownCtx)
}

func applyFlagOverrides(cfg *config.Config) {
	if serveMCPHost != "" {
		cfg.MCPHost = serveMCPHost
	}
	if serveMCPPort != "" {
		cfg.MCPPort = serveMCPPort
	}
	if serveAPIHost != "" {
		cfg.APIHost = serveAPIHost
	}
	if serveAPIPort != "" {
		cfg.APIPort = serveAPIPort
	}
}
