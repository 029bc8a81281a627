// ABOUTME: CLI commands to inspect and export the query log
// ABOUTME: Lists recent requests and writes YAML or Markdown reports
package commands

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harper/retail-nlp/internal/models"
	"github.com/harper/retail-nlp/internal/pipeline"
	"github.com/harper/retail-nlp/internal/storage/sqlite"
)

var (
	logsLimit        int
	logsConversation string
	exportFormat     string
	exportOutput     string
	exportLimit      int
)

// NewLogsCmd creates the logs command group
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect the query log",
		Long: `Inspect answered questions recorded in the query log.

Every request is logged with its intent, routed endpoint, answer,
guardrail verdict and latency. Feedback ratings are summarized in
exports.`,
	}

	cmd.AddCommand(newLogsListCmd())
	cmd.AddCommand(newLogsExportCmd())

	return cmd
}

func newLogsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent questions, newest first",
		Example: `  retail logs list
  retail logs list --limit 5 --format json
  retail logs list --conversation 6f1c...`,
		RunE: runLogsList,
	}
	cmd.Flags().IntVarP(&logsLimit, "limit", "n", 20, "Maximum number of entries")
	cmd.Flags().StringVar(&logsConversation, "conversation", "", "Only show one conversation")
	return cmd
}

func runLogsList(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(logsLimit, "--limit"); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var records []models.QueryLogRecord
	if logsConversation != "" {
		id, perr := uuid.Parse(logsConversation)
		if perr != nil {
			return fmt.Errorf("invalid --conversation: %w", perr)
		}
		records, err = store.Logs.ListByConversation(cmd.Context(), id)
		if len(records) > logsLimit {
			records = records[len(records)-logsLimit:]
		}
		slices.Reverse(records)
	} else {
		records, err = store.Logs.ListRecent(cmd.Context(), logsLimit)
	}
	if err != nil {
		return fmt.Errorf("listing query log: %w", err)
	}

	if len(records) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No queries logged yet\n")
		}
		return nil
	}

	if wantJSON() {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "WHEN\tINTENT\tCONF\tSTATUS\tQUERY\tID\n")
	fmt.Fprintf(w, "----\t------\t----\t------\t-----\t--\n")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			formatTime(rec.CreatedAt),
			rec.Result.Intent,
			rec.Result.Confidence,
			recordStatus(rec),
			truncate(rec.QueryText, 40),
			rec.ID)
	}
	_ = w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d query(s)\n", len(records))
	}
	return nil
}

func recordStatus(rec models.QueryLogRecord) string {
	switch {
	case rec.Result.Blocked:
		return "blocked:" + string(rec.Result.BlockReason)
	case rec.Cached:
		return "cached"
	}
	return "answered"
}

func newLogsExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the query log to YAML or Markdown",
		Example: `  retail logs export --output queries.yaml
  retail logs export --export-format markdown --output report.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(exportLimit, "--limit"); err != nil {
				return err
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			switch exportFormat {
			case "yaml":
				err = store.ExportToYAML(cmd.Context(), exportOutput, exportLimit)
			case "markdown", "md":
				err = store.ExportToMarkdown(cmd.Context(), exportOutput, exportLimit)
			default:
				return fmt.Errorf("--export-format must be yaml or markdown, got %q", exportFormat)
			}
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported query log to %s\n", exportOutput)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&exportFormat, "export-format", "yaml", "Export format (yaml, markdown)")
	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file")
	cmd.Flags().IntVarP(&exportLimit, "limit", "n", 1000, "Maximum number of entries")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func openStore() (*sqlite.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := pipeline.OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}
