// ABOUTME: Main entry point for the retail MCP server with stdio transport
// ABOUTME: Loads configuration, opens the pipeline and serves every tool
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/mcp"
	"github.com/harper/retail-nlp/internal/pipeline"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (for API keys)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := pipeline.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("error closing storage", "err", err)
		}
	}()

	server, _ := mcp.NewServer("Retail Query Pipeline", version, svc.Orchestrator, svc.Store, logger)

	logger.Info("MCP server starting on stdio", "llm_provider", cfg.LLMProvider, "db", cfg.DBPath)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		return nil
	case err := <-serverErr:
		return err
	}
}
