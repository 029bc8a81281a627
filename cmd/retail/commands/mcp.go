// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Lets LLM agents ask retail questions via stdio
package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/retail-nlp/internal/mcp"
	"github.com/harper/retail-nlp/internal/metrics"
)

var (
	metricsAddr string
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the retail query pipeline as an MCP (Model Context Protocol)
server on stdio, so LLM agents can ask analytics questions, rate
answers and browse the query log.

Logs go to stderr; stdout carries the protocol.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  retail mcp

  # Also expose Prometheus metrics
  retail mcp --metrics-addr :9464

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "retail": {
  #       "command": "retail",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9464)")

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, logger, err := openService(ctx)
	if err != nil {
		return err
	}

	server, _ := mcp.NewServer("Retail Query Pipeline", versionInfo.Version, svc.Orchestrator, svc.Store, logger)

	var metricsServer *http.Server
	if metricsAddr != "" {
		metricsServer = startMetrics(metricsAddr, logger)
	}

	logger.Info("MCP server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, gracefully shutting down")
	case err = <-serverErr:
		if err != nil {
			err = fmt.Errorf("server error: %w", err)
		}
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("error stopping metrics server", "err", serr)
		}
		cancel()
	}

	if cerr := svc.Close(); cerr != nil {
		logger.Warn("error closing storage", "err", cerr)
	}
	logger.Info("shutdown complete")

	return err
}

func startMetrics(addr string, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr, "path", "/metrics")
	return srv
}
