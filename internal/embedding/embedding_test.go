// ABOUTME: Tests for embedding providers
// ABOUTME: Verifies hashing determinism, normalization and caching
package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/retail-nlp/internal/config"
)

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashProvider_DeterministicAndNormalized(t *testing.T) {
	p := NewHashProvider(128)
	ctx := context.Background()

	a, err := p.Embed(ctx, "Foot traffic counts visitors entering a branch")
	require.NoError(t, err)
	b, err := p.Embed(ctx, "Foot traffic counts visitors entering a branch")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 128)

	var norm float64
	for _, v := range a {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestHashProvider_SimilarTextScoresHigher(t *testing.T) {
	p := NewHashProvider(384)
	ctx := context.Background()

	query, _ := p.Embed(ctx, "what is foot traffic")
	related, _ := p.Embed(ctx, "Foot traffic is the number of visitors entering a store")
	unrelated, _ := p.Embed(ctx, "Promotions must be approved by the regional manager")

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestHashProvider_EmptyText(t *testing.T) {
	vec, err := NewHashProvider(16).Embed(context.Background(), "  ?! ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestHashProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHashProvider(16).Embed(ctx, "sales")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"how", "busy", "was", "branch", "a", "yesterday"},
		Tokenize("How busy was branch A yesterday?"))
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return []float64{float64(len(text)), 1}, nil
}
func (p *countingProvider) Dimension() int { return 2 }
func (p *countingProvider) Name() string   { return "counting" }

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	p, err := NewCachedProvider(inner, 4)
	require.NoError(t, err)

	first, err := p.Embed(context.Background(), "sales")
	require.NoError(t, err)
	first[0] = 99

	second, err := p.Embed(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1}, second, "cached vector must not alias caller slices")
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "counting", p.Name())
	assert.Equal(t, 2, p.Dimension())
}

func TestCachedProvider_PropagatesErrors(t *testing.T) {
	p, err := NewCachedProvider(&countingProvider{err: errors.New("down")}, 4)
	require.NoError(t, err)
	_, err = p.Embed(context.Background(), "x")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	p, err := New(config.RuleMode(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hash", p.Name())
	assert.Equal(t, 384, p.Dimension())

	cfg := config.Default()
	cfg.EmbeddingProvider = config.EmbeddingOpenAI
	_, err = New(cfg, nil)
	assert.Error(t, err, "openai embeddings without a client")

	cfg.EmbeddingProvider = "word2vec"
	_, err = New(cfg, nil)
	assert.Error(t, err)
}
