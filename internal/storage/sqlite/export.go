// ABOUTME: Export functionality for the query log
// ABOUTME: Supports YAML and Markdown export formats
package sqlite

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ExportData represents the complete exportable data structure
type ExportData struct {
	Version       string        `yaml:"version" json:"version"`
	ExportedAt    string        `yaml:"exported_at" json:"exported_at"`
	Tool          string        `yaml:"tool" json:"tool"`
	AverageRating float64       `yaml:"average_rating" json:"average_rating"`
	FeedbackCount int           `yaml:"feedback_count" json:"feedback_count"`
	Queries       []ExportQuery `yaml:"queries,omitempty" json:"queries,omitempty"`
}

// ExportQuery represents a logged request for export
type ExportQuery struct {
	ID             string            `yaml:"id" json:"id"`
	ConversationID string            `yaml:"conversation_id" json:"conversation_id"`
	Role           string            `yaml:"role" json:"role"`
	Query          string            `yaml:"query" json:"query"`
	Intent         string            `yaml:"intent" json:"intent"`
	Confidence     float64           `yaml:"confidence" json:"confidence"`
	Endpoint       string            `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Slots          map[string]string `yaml:"slots,omitempty" json:"slots,omitempty"`
	Response       string            `yaml:"response" json:"response"`
	Blocked        bool              `yaml:"blocked" json:"blocked"`
	BlockReason    string            `yaml:"block_reason,omitempty" json:"block_reason,omitempty"`
	Cached         bool              `yaml:"cached" json:"cached"`
	LatencyMs      int64             `yaml:"latency_ms" json:"latency_ms"`
	CreatedAt      string            `yaml:"created_at" json:"created_at"`
}

// Export collects the newest limit logged requests, newest first
func (s *Storage) Export(ctx context.Context, limit int) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "retail",
	}

	records, err := s.Logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	for _, rec := range records {
		data.Queries = append(data.Queries, ExportQuery{
			ID:             rec.ID.String(),
			ConversationID: rec.ConversationID.String(),
			Role:           string(rec.UserRole),
			Query:          rec.QueryText,
			Intent:         string(rec.Result.Intent),
			Confidence:     rec.Result.Confidence,
			Endpoint:       rec.Result.RoutedEndpoint,
			Slots:          rec.Result.Slots,
			Response:       rec.Result.ResponseText,
			Blocked:        rec.Result.Blocked,
			BlockReason:    string(rec.Result.BlockReason),
			Cached:         rec.Cached,
			LatencyMs:      rec.Latency.Milliseconds(),
			CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
		})
	}

	data.AverageRating, data.FeedbackCount, err = s.Feedback.AverageRating(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize feedback: %w", err)
	}

	return data, nil
}

// ExportToYAML exports data to a YAML file
func (s *Storage) ExportToYAML(ctx context.Context, outputPath string, limit int) error {
	data, err := s.Export(ctx, limit)
	if err != nil {
		return err
	}

	return writeExport(outputPath, func(w io.Writer) error {
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	})
}

// ExportToMarkdown exports data to a Markdown file
func (s *Storage) ExportToMarkdown(ctx context.Context, outputPath string, limit int) error {
	data, err := s.Export(ctx, limit)
	if err != nil {
		return err
	}

	return writeExport(outputPath, func(w io.Writer) error {
		WriteMarkdown(w, data)
		return nil
	})
}

// WriteMarkdown renders an export as a Markdown report
func WriteMarkdown(w io.Writer, data *ExportData) {
	_, _ = fmt.Fprintf(w, "# Query Log Export - %s\n\n", time.Now().Format("2006-01-02"))
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)

	if data.FeedbackCount > 0 {
		_, _ = fmt.Fprintf(w, "Average rating: %.2f over %d ratings\n\n", data.AverageRating, data.FeedbackCount)
	}

	if len(data.Queries) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "| Time | Intent | Confidence | Endpoint | Query |")
	_, _ = fmt.Fprintln(w, "|------|--------|------------|----------|-------|")
	for _, q := range data.Queries {
		intent := q.Intent
		if q.Blocked {
			intent += " (blocked: " + q.BlockReason + ")"
		}
		_, _ = fmt.Fprintf(w, "| %s | %s | %.2f | %s | %s |\n",
			q.CreatedAt, intent, q.Confidence, q.Endpoint, escapeCell(q.Query))
	}
	_, _ = fmt.Fprintln(w)
}

func writeExport(outputPath string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return write(file)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
