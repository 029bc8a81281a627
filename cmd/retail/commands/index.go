// ABOUTME: CLI commands to build, extend and inspect the retrieval index
// ABOUTME: Embeds corpus documents offline and persists them in the database
package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/embedding"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/pipeline"
	"github.com/harper/retail-nlp/internal/retrieval"
	"github.com/harper/retail-nlp/internal/storage/sqlite"
)

var (
	indexFile string
)

// NewIndexCmd creates the index command group
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the retrieval index",
		Long: `Manage the retrieval index used to ground answers.

Documents are embedded with the configured embedding provider and
stored in the database. A YAML or JSON corpus file holds a list of
documents with id, collection and text fields.`,
	}

	cmd.AddCommand(newIndexBuildCmd())
	cmd.AddCommand(newIndexAddCmd())
	cmd.AddCommand(newIndexStatusCmd())

	return cmd
}

func newIndexBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild the index from a corpus file or the bundled corpus",
		Example: `  retail index build
  retail index build --file corpus.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := retrieval.DefaultDocuments()
			if indexFile != "" {
				var err error
				if docs, err = retrieval.LoadDocuments(indexFile); err != nil {
					return err
				}
			}

			return withBuilder(func(builder *retrieval.Builder) error {
				idx, err := builder.Build(cmd.Context(), docs)
				if err != nil {
					return err
				}
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d document(s) with %s (dimension %d)\n",
						idx.Len(), idx.Provider(), idx.Dimension())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&indexFile, "file", "f", "", "Corpus file (YAML or JSON)")
	return cmd
}

func newIndexAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Append documents from a corpus file to the index",
		Example: `  retail index add --file new-rules.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := retrieval.LoadDocuments(indexFile)
			if err != nil {
				return err
			}

			return withBuilder(func(builder *retrieval.Builder) error {
				if err := builder.Add(cmd.Context(), docs); err != nil {
					return fmt.Errorf("adding documents: %w", err)
				}
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "Added %d document(s)\n", len(docs))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&indexFile, "file", "f", "", "Corpus file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newIndexStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index size, embedding provider and build time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := pipeline.OpenStore(cfg)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer func() { _ = store.Close() }()

			meta, err := store.Index.Meta(cmd.Context())
			if err != nil {
				return err
			}
			count, err := store.Index.Count(cmd.Context())
			if err != nil {
				return err
			}

			return printIndexStatus(cmd, meta, count)
		},
	}
}

func printIndexStatus(cmd *cobra.Command, meta *sqlite.IndexMeta, count int) error {
	w := cmd.OutOrStdout()
	if wantJSON() {
		payload := map[string]interface{}{"documents": count}
		if meta != nil {
			payload["provider"] = meta.Provider
			payload["dimension"] = meta.Dimension
			payload["built_at"] = meta.BuiltAt.Format(time.RFC3339)
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(w, "%s\n", data)
		return nil
	}

	if meta == nil {
		fmt.Fprintln(w, "No index built yet. Run 'retail index build'.")
		return nil
	}
	fmt.Fprintf(w, "Documents: %d\n", count)
	fmt.Fprintf(w, "Provider:  %s\n", meta.Provider)
	fmt.Fprintf(w, "Dimension: %d\n", meta.Dimension)
	fmt.Fprintf(w, "Built:     %s\n", formatTime(meta.BuiltAt))
	return nil
}

// withBuilder opens the database and an embedder without building the pipeline
func withBuilder(fn func(*retrieval.Builder) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := pipeline.OpenStore(cfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = store.Close() }()

	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}
	return fn(retrieval.NewBuilder(embedder, store.Index, logger))
}

func newEmbedder(cfg config.Config, logger *log.Logger) (embedding.Provider, error) {
	_, client, err := llm.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing LLM client: %w", err)
	}
	return embedding.New(cfg, client)
}
