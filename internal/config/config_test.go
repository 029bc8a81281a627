// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies environment variable parsing and validation
package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearRetailEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "RETAIL_") || key == "OPENAI_API_KEY" {
			t.Setenv(key, "")
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearRetailEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LLMProvider != ProviderOllama {
		t.Errorf("LLMProvider = %s, want ollama", cfg.LLMProvider)
	}
	if cfg.ChatModel != "llama3.2:3b" {
		t.Errorf("ChatModel = %s, want llama3.2:3b", cfg.ChatModel)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v, want 30s", cfg.LLMTimeout)
	}
	if cfg.IntentThreshold != 0.3 {
		t.Errorf("IntentThreshold = %f, want 0.3", cfg.IntentThreshold)
	}
	if cfg.GuardrailThreshold != 0.3 {
		t.Errorf("GuardrailThreshold = %f, want 0.3", cfg.GuardrailThreshold)
	}
	if !cfg.FallbackToRules {
		t.Error("FallbackToRules = false, want true")
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.TopK)
	}
	if cfg.MinSimilarity != 0.1 {
		t.Errorf("MinSimilarity = %f, want 0.1", cfg.MinSimilarity)
	}
	if cfg.EmbeddingDimension != 384 {
		t.Errorf("EmbeddingDimension = %d, want 384", cfg.EmbeddingDimension)
	}
	if cfg.CacheScope != CacheScopeGlobal {
		t.Errorf("CacheScope = %s, want global", cfg.CacheScope)
	}
	if cfg.BlockOutOfScope {
		t.Error("BlockOutOfScope = true, want false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearRetailEnv(t)
	t.Setenv("RETAIL_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("RETAIL_CHAT_MODEL", "gpt-4o-mini")
	t.Setenv("RETAIL_LLM_TIMEOUT", "5s")
	t.Setenv("RETAIL_INTENT_STRATEGY", "rule")
	t.Setenv("RETAIL_RESPONSE_STRATEGY", "template")
	t.Setenv("RETAIL_INTENT_THRESHOLD", "0.5")
	t.Setenv("RETAIL_TOP_K", "3")
	t.Setenv("RETAIL_MIN_SIMILARITY", "0.25")
	t.Setenv("RETAIL_CACHE_SCOPE", "conversation")
	t.Setenv("RETAIL_BLOCK_OUT_OF_SCOPE", "true")
	t.Setenv("RETAIL_PROFANITY_EXTRA", " darn , heck ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("LLMProvider = %s, want openai", cfg.LLMProvider)
	}
	if cfg.LLMAPIKey != "test-key" {
		t.Errorf("LLMAPIKey = %s, want test-key", cfg.LLMAPIKey)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("LLMTimeout = %v, want 5s", cfg.LLMTimeout)
	}
	if cfg.IntentStrategy != StrategyRule {
		t.Errorf("IntentStrategy = %s, want rule", cfg.IntentStrategy)
	}
	if cfg.ResponseStrategy != StrategyTemplate {
		t.Errorf("ResponseStrategy = %s, want template", cfg.ResponseStrategy)
	}
	if cfg.IntentThreshold != 0.5 {
		t.Errorf("IntentThreshold = %f, want 0.5", cfg.IntentThreshold)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
	if cfg.MinSimilarity != 0.25 {
		t.Errorf("MinSimilarity = %f, want 0.25", cfg.MinSimilarity)
	}
	if cfg.CacheScope != CacheScopeConversation {
		t.Errorf("CacheScope = %s, want conversation", cfg.CacheScope)
	}
	if !cfg.BlockOutOfScope {
		t.Error("BlockOutOfScope = false, want true")
	}
	if len(cfg.ExtraProfanity) != 2 || cfg.ExtraProfanity[0] != "darn" || cfg.ExtraProfanity[1] != "heck" {
		t.Errorf("ExtraProfanity = %v, want [darn heck]", cfg.ExtraProfanity)
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearRetailEnv(t)
	t.Setenv("RETAIL_TOP_K", "many")
	t.Setenv("RETAIL_LLM_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want default 5", cfg.TopK)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v, want default 30s", cfg.LLMTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"rule mode", func(c *Config) { *c = RuleMode() }, false},
		{"intent threshold too high", func(c *Config) { c.IntentThreshold = 1.5 }, true},
		{"guardrail threshold negative", func(c *Config) { c.GuardrailThreshold = -0.1 }, true},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, true},
		{"zero top k", func(c *Config) { c.TopK = 0 }, true},
		{"negative similarity floor", func(c *Config) { c.MinSimilarity = -0.1 }, true},
		{"similarity floor of one", func(c *Config) { c.MinSimilarity = 1 }, true},
		{"zero similarity floor", func(c *Config) { c.MinSimilarity = 0 }, false},
		{"unknown provider", func(c *Config) { c.LLMProvider = "bard" }, true},
		{"openai without key", func(c *Config) { c.LLMProvider = ProviderOpenAI }, true},
		{"bad intent strategy", func(c *Config) { c.IntentStrategy = "magic" }, true},
		{"template slot strategy", func(c *Config) { c.SlotStrategy = StrategyTemplate }, true},
		{"rule response strategy", func(c *Config) { c.ResponseStrategy = StrategyRule }, true},
		{"openai embeddings without llm", func(c *Config) {
			c.LLMProvider = ProviderNone
			c.EmbeddingProvider = EmbeddingOpenAI
		}, true},
		{"bad cache scope", func(c *Config) { c.CacheScope = "user" }, true},
		{"cache without ttl", func(c *Config) { c.CacheTTL = 0 }, true},
		{"cache disabled without ttl", func(c *Config) {
			c.CacheEnabled = false
			c.CacheTTL = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRuleMode(t *testing.T) {
	cfg := RuleMode()
	if cfg.LLMEnabled() {
		t.Error("RuleMode should disable the LLM")
	}
	if cfg.IntentStrategy != StrategyRule || cfg.SlotStrategy != StrategyRule {
		t.Error("RuleMode should use rule strategies")
	}
	if cfg.ResponseStrategy != StrategyTemplate {
		t.Error("RuleMode should use template responses")
	}
}

func TestDefaultDBPath_UsesXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	if got := DefaultDBPath(); got != "/tmp/xdg/retail-nlp/retail.db" {
		t.Errorf("DefaultDBPath() = %s, want /tmp/xdg/retail-nlp/retail.db", got)
	}
}
