// ABOUTME: In-process LRU cache of completion responses
// ABOUTME: Keyed by system prompt, prompt, temperature, token limit and format
package llm

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingBackend memoizes successful completions of an inner backend
type CachingBackend struct {
	inner Backend
	cache *lru.Cache[string, string]
}

// NewCachingBackend wraps inner with an LRU of the given size
func NewCachingBackend(inner Backend, size int) (*CachingBackend, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("creating completion cache: %w", err)
	}
	return &CachingBackend{inner: inner, cache: cache}, nil
}

// Complete returns a cached response or delegates to the inner backend.
// Failures are never cached.
func (b *CachingBackend) Complete(ctx context.Context, req Request) (string, error) {
	key := cacheKey(req)
	if resp, ok := b.cache.Get(key); ok {
		return resp, nil
	}
	resp, err := b.inner.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	b.cache.Add(key, resp)
	return resp, nil
}

// Len returns the number of cached completions
func (b *CachingBackend) Len() int {
	return b.cache.Len()
}

func cacheKey(req Request) string {
	return fmt.Sprintf("%s|%s|%.3f|%d|%t", req.System, req.Prompt, req.Temperature, req.MaxTokens, req.JSON)
}
