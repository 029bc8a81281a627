// ABOUTME: Embedding providers that turn text into fixed-size vectors
// ABOUTME: Deterministic feature hashing locally, or an OpenAI-compatible embeddings API
package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
)

// Provider embeds text into vectors of a fixed dimension
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
	Name() string
}

// New selects the provider named by cfg.EmbeddingProvider
func New(cfg config.Config, client *llm.OpenAIClient) (Provider, error) {
	switch cfg.EmbeddingProvider {
	case config.EmbeddingHash:
		return NewHashProvider(cfg.EmbeddingDimension), nil
	case config.EmbeddingOpenAI:
		if client == nil {
			return nil, fmt.Errorf("openai embeddings need an LLM client")
		}
		return NewCachedProvider(NewOpenAIProvider(client, cfg.EmbeddingModel, cfg.EmbeddingDimension), 4096)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// HashProvider embeds text with signed feature hashing over unigrams and
// bigrams. Output is L2-normalized and fully deterministic.
type HashProvider struct {
	dim int
}

// NewHashProvider creates a hashing embedder with dim buckets
func NewHashProvider(dim int) *HashProvider {
	if dim <= 0 {
		dim = 384
	}
	return &HashProvider{dim: dim}
}

// Embed implements Provider
func (p *HashProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float64, p.dim)
	tokens := Tokenize(text)
	for i, tok := range tokens {
		p.add(vec, tok, 1.0)
		if i > 0 {
			p.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}
	normalize(vec)
	return vec, nil
}

func (p *HashProvider) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(p.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// Dimension implements Provider
func (p *HashProvider) Dimension() int { return p.dim }

// Name implements Provider
func (p *HashProvider) Name() string { return config.EmbeddingHash }

// Tokenize lowercases text and splits it into letter/digit runs
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}

// OpenAIProvider embeds text through an OpenAI-compatible API
type OpenAIProvider struct {
	client *llm.OpenAIClient
	model  string
	dim    int
}

// NewOpenAIProvider wraps client; dim is the expected vector length
func NewOpenAIProvider(client *llm.OpenAIClient, model string, dim int) *OpenAIProvider {
	return &OpenAIProvider{client: client, model: model, dim: dim}
}

// Embed implements Provider
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := p.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != p.dim {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", p.dim, len(vec))
	}
	return vec, nil
}

// Dimension implements Provider
func (p *OpenAIProvider) Dimension() int { return p.dim }

// Name implements Provider
func (p *OpenAIProvider) Name() string { return config.EmbeddingOpenAI + ":" + p.model }

// CachedProvider memoizes another provider's embeddings
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, []float64]
}

// NewCachedProvider wraps inner with an LRU of size entries
func NewCachedProvider(inner Provider, size int) (*CachedProvider, error) {
	cache, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	return &CachedProvider{inner: inner, cache: cache}, nil
}

// Embed implements Provider. Returned slices are copies.
func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if vec, ok := p.cache.Get(text); ok {
		return append([]float64(nil), vec...), nil
	}
	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Add(text, append([]float64(nil), vec...))
	return vec, nil
}

// Dimension implements Provider
func (p *CachedProvider) Dimension() int { return p.inner.Dimension() }

// Name implements Provider
func (p *CachedProvider) Name() string { return p.inner.Name() }
