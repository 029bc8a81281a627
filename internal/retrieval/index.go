// ABOUTME: In-memory vector index with cosine similarity search
// ABOUTME: Built once, frozen, then shared read-only across concurrent requests
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/harper/retail-nlp/internal/models"
)

// ErrIndexFrozen is returned when adding to an index that is already serving
var ErrIndexFrozen = errors.New("index is frozen")

// Index holds embedded documents in insertion order
type Index struct {
	mu        sync.RWMutex
	dimension int
	provider  string
	entries   []models.IndexEntry
	frozen    bool
}

// NewIndex creates an empty index for vectors of the given dimension
func NewIndex(provider string, dimension int) *Index {
	return &Index{provider: provider, dimension: dimension}
}

// Add appends an entry. Only valid before Freeze.
func (idx *Index) Add(entry models.IndexEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.frozen {
		return ErrIndexFrozen
	}
	if len(entry.Vector) != idx.dimension {
		return fmt.Errorf("document %s: expected %d dimensions, got %d", entry.ID, idx.dimension, len(entry.Vector))
	}
	idx.entries = append(idx.entries, entry)
	return nil
}

// Freeze makes the index read-only
func (idx *Index) Freeze() {
	idx.mu.Lock()
	idx.frozen = true
	idx.mu.Unlock()
}

// Len returns the number of indexed documents
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Dimension returns the vector dimension
func (idx *Index) Dimension() int { return idx.dimension }

// Provider returns the name of the embedder that produced the vectors
func (idx *Index) Provider() string { return idx.provider }

// Entries returns a copy of the indexed entries in insertion order
func (idx *Index) Entries() []models.IndexEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]models.IndexEntry(nil), idx.entries...)
}

// Search returns up to topK passages by descending cosine similarity.
// Equal scores keep insertion order.
func (idx *Index) Search(ctx context.Context, vector []float64, topK int) ([]models.RetrievedPassage, error) {
	if topK <= 0 {
		return []models.RetrievedPassage{}, nil
	}
	if len(vector) != idx.dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d", len(vector), idx.dimension)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]models.RetrievedPassage, 0, len(idx.entries))
	for i, e := range idx.entries {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results = append(results, models.RetrievedPassage{
			DocumentID: e.ID,
			Collection: e.Collection,
			Text:       e.Text,
			Score:      CosineSimilarity(vector, e.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
