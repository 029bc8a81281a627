// ABOUTME: Builds the configured completion backend and its OpenAI-compatible client
// ABOUTME: Wraps the client in the completion cache when enabled
package llm

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harper/retail-nlp/internal/config"
)

// NewFromConfig builds the completion backend described by cfg. It returns a
// nil backend and client when the provider is "none".
func NewFromConfig(cfg config.Config, logger *log.Logger) (Backend, *OpenAIClient, error) {
	if !cfg.LLMEnabled() {
		return nil, nil, nil
	}
	client, err := NewOpenAIClient(ClientConfigFrom(cfg), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s client: %w", cfg.LLMProvider, err)
	}
	if !cfg.LLMCache {
		return client, client, nil
	}
	cached, err := NewCachingBackend(client, cfg.LLMCacheSize)
	if err != nil {
		return nil, nil, err
	}
	return cached, client, nil
}
