// ABOUTME: Offline index building from corpus files and persisted artifacts
// ABOUTME: Embeds documents once and reloads the frozen index at startup
package retrieval

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/harper/retail-nlp/internal/embedding"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/models"
	"github.com/harper/retail-nlp/internal/storage/sqlite"
)

//go:embed default_corpus.yaml
var defaultCorpus []byte

// ArtifactStore persists a built index
type ArtifactStore interface {
	Replace(ctx context.Context, meta sqlite.IndexMeta, entries []models.IndexEntry) error
	Append(ctx context.Context, meta sqlite.IndexMeta, entries []models.IndexEntry) error
	Load(ctx context.Context) (*sqlite.IndexMeta, []models.IndexEntry, error)
}

// corpusDocument accepts both the native layout and the legacy
// {text, metadata: {source}} layout
type corpusDocument struct {
	ID         string            `yaml:"id"`
	Collection string            `yaml:"collection"`
	Text       string            `yaml:"text"`
	Metadata   map[string]string `yaml:"metadata"`
}

// ParseDocuments decodes a YAML or JSON document list
func ParseDocuments(data []byte) ([]models.Document, error) {
	var raw []corpusDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}

	docs := make([]models.Document, 0, len(raw))
	for i, d := range raw {
		if d.Text == "" {
			return nil, fmt.Errorf("document %d has no text", i)
		}
		collection := d.Collection
		if collection == "" {
			collection = d.Metadata["source"]
		}
		if collection == "" {
			collection = "general"
		}
		id := d.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", collection, i)
		}
		docs = append(docs, models.Document{
			ID:         id,
			Collection: collection,
			Text:       d.Text,
			Metadata:   d.Metadata,
		})
	}
	return docs, nil
}

// LoadDocuments reads a corpus file and splits long documents into passages
func LoadDocuments(path string) ([]models.Document, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	docs, err := ParseDocuments(data)
	if err != nil {
		return nil, err
	}
	return ChunkDocuments(docs, MaxPassageChars), nil
}

// DefaultDocuments returns the built-in retail knowledge corpus
func DefaultDocuments() []models.Document {
	docs, err := ParseDocuments(defaultCorpus)
	if err != nil {
		panic(fmt.Sprintf("embedded corpus is invalid: %v", err))
	}
	return docs
}

// Builder embeds corpora and manages the persisted artifact
type Builder struct {
	embedder embedding.Provider
	store    ArtifactStore
	logger   *log.Logger
}

// NewBuilder creates a Builder. store may be nil for purely in-memory use.
func NewBuilder(embedder embedding.Provider, store ArtifactStore, logger *log.Logger) *Builder {
	return &Builder{
		embedder: embedder,
		store:    store,
		logger:   logging.Component(logger, "indexer"),
	}
}

// Embed converts documents into index entries
func (b *Builder) Embed(ctx context.Context, docs []models.Document) ([]models.IndexEntry, error) {
	entries := make([]models.IndexEntry, 0, len(docs))
	for _, doc := range docs {
		vec, err := b.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %s: %w", doc.ID, err)
		}
		entries = append(entries, models.IndexEntry{Document: doc, Vector: vec})
	}
	return entries, nil
}

// Build embeds docs into a new frozen index, replacing any persisted artifact
func (b *Builder) Build(ctx context.Context, docs []models.Document) (*Index, error) {
	entries, err := b.Embed(ctx, docs)
	if err != nil {
		return nil, err
	}

	idx, err := b.freeze(entries)
	if err != nil {
		return nil, err
	}

	if b.store != nil {
		meta := sqlite.IndexMeta{Provider: b.embedder.Name(), Dimension: b.embedder.Dimension(), BuiltAt: time.Now().UTC()}
		if err := b.store.Replace(ctx, meta, entries); err != nil {
			return nil, fmt.Errorf("failed to persist index: %w", err)
		}
	}

	b.logger.Info("index built", "documents", idx.Len(), "provider", idx.Provider(), "dimension", idx.Dimension())
	return idx, nil
}

// Add embeds docs and appends them to the persisted artifact
func (b *Builder) Add(ctx context.Context, docs []models.Document) error {
	if b.store == nil {
		return fmt.Errorf("no index store configured")
	}
	entries, err := b.Embed(ctx, docs)
	if err != nil {
		return err
	}
	meta := sqlite.IndexMeta{Provider: b.embedder.Name(), Dimension: b.embedder.Dimension(), BuiltAt: time.Now().UTC()}
	if err := b.store.Append(ctx, meta, entries); err != nil {
		return err
	}
	b.logger.Info("documents added to index", "documents", len(entries))
	return nil
}

// Load rebuilds the frozen index from the persisted artifact. A missing
// artifact or one produced by a different embedder yields an empty index.
func (b *Builder) Load(ctx context.Context) (*Index, error) {
	empty := NewIndex(b.embedder.Name(), b.embedder.Dimension())
	empty.Freeze()

	if b.store == nil {
		return empty, nil
	}

	meta, entries, err := b.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load index: %w", err)
	}
	if meta == nil {
		b.logger.Warn("no index artifact found, retrieval disabled")
		return empty, nil
	}
	if meta.Provider != b.embedder.Name() || meta.Dimension != b.embedder.Dimension() {
		b.logger.Warn("index artifact does not match embedder, retrieval disabled",
			"artifact_provider", meta.Provider, "artifact_dimension", meta.Dimension,
			"provider", b.embedder.Name(), "dimension", b.embedder.Dimension())
		return empty, nil
	}

	idx, err := b.freeze(entries)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("index loaded", "documents", idx.Len())
	return idx, nil
}

// LoadOrBuild loads the artifact, building from docs when it is absent or stale
func (b *Builder) LoadOrBuild(ctx context.Context, docs []models.Document) (*Index, error) {
	idx, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	if idx.Len() > 0 || len(docs) == 0 {
		return idx, nil
	}
	return b.Build(ctx, docs)
}

func (b *Builder) freeze(entries []models.IndexEntry) (*Index, error) {
	idx := NewIndex(b.embedder.Name(), b.embedder.Dimension())
	for _, e := range entries {
		if err := idx.Add(e); err != nil {
			return nil, err
		}
	}
	idx.Freeze()
	return idx, nil
}
