// ABOUTME: TTL-bounded response cache for finished pipeline results
// ABOUTME: Concurrent misses on one key share a single pipeline run
package cache

import (
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
)

// Cache maps normalized queries to immutable pipeline results
type Cache struct {
	entries *expirable.LRU[string, models.PipelineResult]
	group   singleflight.Group
	scope   string
}

// New creates a cache holding at most size results for ttl each
func New(size int, ttl time.Duration, scope string) *Cache {
	return &Cache{
		entries: expirable.NewLRU[string, models.PipelineResult](size, nil, ttl),
		scope:   scope,
	}
}

// FromConfig returns the configured cache, or nil when caching is disabled
func FromConfig(cfg config.Config) *Cache {
	if !cfg.CacheEnabled {
		return nil
	}
	return New(cfg.CacheSize, cfg.CacheTTL, cfg.CacheScope)
}

// Key derives the cache key for q. The conversation is part of the key
// only in conversation scope.
func (c *Cache) Key(q models.Query) string {
	key := Normalize(q.Text) + "|" + string(q.IntentHint)
	if c.scope == config.CacheScopeConversation {
		key = q.ConversationID.String() + "|" + key
	}
	return key
}

// Get returns a copy of the cached result for key
func (c *Cache) Get(key string) (models.PipelineResult, bool) {
	res, ok := c.entries.Get(key)
	if !ok {
		return models.PipelineResult{}, false
	}
	return res.Clone(), true
}

// Add stores a copy of res under key
func (c *Cache) Add(key string, res models.PipelineResult) {
	c.entries.Add(key, res.Clone())
}

// Len returns the number of live entries
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Compute is one pipeline run. keep reports whether its result may be cached.
type Compute func() (res models.PipelineResult, keep bool)

type flight struct {
	res  models.PipelineResult
	keep bool
}

// Do returns the cached result for key or runs compute once for all
// concurrent callers. cached is true when this caller did not run compute.
// Callers that joined a run whose result was not cacheable compute their own.
func (c *Cache) Do(key string, compute Compute) (res models.PipelineResult, cached bool) {
	if res, ok := c.Get(key); ok {
		metrics.IncCache("hit")
		return res, true
	}

	ran := false
	v, _, shared := c.group.Do(key, func() (any, error) {
		if res, ok := c.entries.Get(key); ok {
			return flight{res: res, keep: true}, nil
		}
		ran = true
		res, keep := compute()
		if keep {
			c.Add(key, res)
		}
		return flight{res: res, keep: keep}, nil
	})
	f := v.(flight)

	switch {
	case ran:
		metrics.IncCache("miss")
	case !f.keep:
		metrics.IncCache("miss")
		res, _ := compute()
		return res, false
	case shared:
		metrics.IncCache("shared")
	default:
		metrics.IncCache("hit")
	}
	return f.res.Clone(), !ran
}

// Normalize lowercases text, drops punctuation and collapses whitespace
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
