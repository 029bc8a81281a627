// ABOUTME: Wires storage, the LLM backend, embeddings and the index into an Orchestrator
// ABOUTME: Used by the CLI and the MCP server so both run the same pipeline
package pipeline

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/embedding"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/retrieval"
	"github.com/harper/retail-nlp/internal/storage/sqlite"
)

// MemoryDBPath opens an in-memory database instead of a file
const MemoryDBPath = ":memory:"

// Service owns every long-lived resource behind an Orchestrator
type Service struct {
	Orchestrator *Orchestrator
	Store        *sqlite.Storage
	Builder      *retrieval.Builder
	Embedder     embedding.Provider
	Backend      llm.Backend
}

// Open builds the full pipeline described by cfg. The index is loaded from
// the database and built from the bundled corpus when absent. An index that
// cannot be loaded or built leaves retrieval empty instead of failing.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (*Service, error) {
	store, err := openStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	svc, err := newService(ctx, cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return svc, nil
}

// OpenStore opens only the database, for commands that never run queries
func OpenStore(cfg config.Config) (*sqlite.Storage, error) {
	return openStore(cfg.DBPath)
}

func openStore(path string) (*sqlite.Storage, error) {
	if path == MemoryDBPath {
		return sqlite.NewStorageInMemory()
	}
	return sqlite.NewStorage(path)
}

func newService(ctx context.Context, cfg config.Config, store *sqlite.Storage, logger *log.Logger) (*Service, error) {
	backend, client, err := llm.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.New(cfg, client)
	if err != nil {
		return nil, err
	}

	builder := retrieval.NewBuilder(embedder, store.Index, logger)
	index, err := builder.LoadOrBuild(ctx, retrieval.DefaultDocuments())
	if err != nil {
		logger.Warn("index unavailable, serving without retrieval", "err", err)
		index = retrieval.NewIndex(embedder.Name(), embedder.Dimension())
		index.Freeze()
	}
	engine := retrieval.NewEngine(embedder, index, cfg.MinSimilarity, cfg.RetrievalTimeout, logger)

	orch, err := New(cfg, backend, engine, logger, WithRecorder(store))
	if err != nil {
		return nil, err
	}

	return &Service{
		Orchestrator: orch,
		Store:        store,
		Builder:      builder,
		Embedder:     embedder,
		Backend:      backend,
	}, nil
}

// Close releases the database
func (s *Service) Close() error {
	return s.Store.Close()
}
