// ABOUTME: Root command, global flags and shared setup for the retail CLI
// ABOUTME: Loads .env and configuration once per invocation
package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/pipeline"
)

var (
	verbose      bool
	quiet        bool
	offline      bool
	outputFormat string
	dbPath       string
)

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retail",
		Short: "Natural-language questions over retail analytics",
		Long: `retail answers natural-language questions about store KPIs,
branch status, tasks, events and promotions.

Each question runs through input guardrails, intent classification,
slot filling, routing, retrieval, generation and output guardrails.
Language model stages fall back to rules and templates when the
model is slow or unavailable.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "auto", "text", "json":
				return nil
			}
			return fmt.Errorf("--format must be auto, text or json, got %q", outputFormat)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, text, json)")
	cmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use rule and template strategies only, no LLM")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: $RETAIL_DB_PATH or XDG data dir)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewLogsCmd())
	cmd.AddCommand(NewFeedbackCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env and the environment, then applies global flags
func loadConfig() (config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil && !offline {
		return cfg, fmt.Errorf("loading configuration: %w", err)
	}
	if offline {
		cfg.LLMProvider = config.ProviderNone
		cfg.IntentStrategy = config.StrategyRule
		cfg.SlotStrategy = config.StrategyRule
		cfg.ResponseStrategy = config.StrategyTemplate
		cfg.EmbeddingProvider = config.EmbeddingHash
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("loading configuration: %w", err)
		}
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "error"
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *log.Logger {
	return logging.New(cfg)
}

// openService loads configuration and opens the full pipeline
func openService(ctx context.Context) (*pipeline.Service, *log.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)

	svc, err := pipeline.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing pipeline: %w", err)
	}
	return svc, logger, nil
}

func wantJSON() bool {
	return outputFormat == "json"
}
