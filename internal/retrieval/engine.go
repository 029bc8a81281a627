// ABOUTME: Retrieval engine combining an embedder with the frozen index
// ABOUTME: Failures degrade to an empty passage list so generation can continue
package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/retail-nlp/internal/embedding"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
)

// Engine answers passage lookups for the pipeline
type Engine struct {
	embedder embedding.Provider
	index    *Index
	minScore float64
	timeout  time.Duration
	logger   *log.Logger
}

// NewEngine creates an Engine. A nil index behaves as an empty one.
// Passages scoring at or below minScore are never returned.
func NewEngine(embedder embedding.Provider, index *Index, minScore float64, timeout time.Duration, logger *log.Logger) *Engine {
	return &Engine{
		embedder: embedder,
		index:    index,
		minScore: minScore,
		timeout:  timeout,
		logger:   logging.Component(logger, "retrieval"),
	}
}

// Index returns the index being served
func (e *Engine) Index() *Index { return e.index }

// Search embeds the query and returns up to topK passages scoring above the
// engine's similarity floor. It never fails: an unavailable index, embedder error or timeout yields no passages.
func (e *Engine) Search(ctx context.Context, query string, topK int) []models.RetrievedPassage {
	if e.index == nil || e.index.Len() == 0 || e.embedder == nil {
		metrics.ObserveRetrieval(0)
		return []models.RetrievedPassage{}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("retrieval unavailable", "stage", "embed", "err", err)
		metrics.ObserveRetrieval(0)
		return []models.RetrievedPassage{}
	}

	passages, err := e.index.Search(ctx, vector, topK)
	if err != nil {
		e.logger.Warn("retrieval unavailable", "stage", "search", "err", err)
		metrics.ObserveRetrieval(0)
		return []models.RetrievedPassage{}
	}

	relevant := passages[:0]
	for _, p := range passages {
		if p.Score > e.minScore {
			relevant = append(relevant, p)
		}
	}

	metrics.ObserveRetrieval(len(relevant))
	e.logger.Debug("retrieved passages", "count", len(relevant), "below_floor", len(passages)-len(relevant))
	return relevant
}

// EnrichQuery appends slot values, ordered by slot name, to the query text
func EnrichQuery(text string, slots models.SlotSet) string {
	values := slots.Values()
	if len(values) == 0 {
		return text
	}
	return text + " " + strings.Join(values, " ")
}
