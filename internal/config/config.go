// ABOUTME: Centralized configuration for the retail query pipeline
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Strategy names shared by the classifier, slot filler and generator
const (
	StrategyLLM      = "llm"
	StrategyRule     = "rule"
	StrategyTemplate = "template"
)

// LLM providers
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// Embedding providers
const (
	EmbeddingHash   = "hash"
	EmbeddingOpenAI = "openai"
)

// Cache scopes
const (
	CacheScopeGlobal       = "global"
	CacheScopeConversation = "conversation"
)

// Config holds all configuration for the pipeline. It is built once at
// startup and passed by value into every constructor.
type Config struct {
	// LLM backend settings
	LLMProvider    string
	LLMBaseURL     string
	LLMAPIKey      string
	ChatModel      string
	Temperature    float64
	MaxTokens      int
	LLMTimeout     time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	LLMCache       bool
	LLMCacheSize   int
	EmbeddingModel string

	// Strategy selection
	IntentStrategy   string
	SlotStrategy     string
	ResponseStrategy string
	FallbackToRules  bool

	// Thresholds
	IntentThreshold    float64
	GuardrailThreshold float64

	// Guardrails
	EnableProfanity     bool
	EnablePII           bool
	EnableScope         bool
	BlockOutOfScope     bool
	EnableConfidence    bool
	EnableHallucination bool
	ExtraProfanity      []string

	// Retrieval
	TopK                     int
	MinSimilarity            float64
	EmbeddingProvider        string
	EmbeddingDimension       int
	RetrievalTimeout         time.Duration
	RetrievalEnrichWithSlots bool

	// Response cache
	CacheEnabled bool
	CacheTTL     time.Duration
	CacheSize    int
	CacheScope   string

	// Storage and logging
	DBPath   string
	LogLevel string
	LogJSON  bool
}

// Default returns the built-in defaults without reading the environment
func Default() Config {
	return Config{
		LLMProvider:    ProviderOllama,
		LLMBaseURL:     "http://localhost:11434/v1",
		ChatModel:      "llama3.2:3b",
		Temperature:    0.7,
		MaxTokens:      500,
		LLMTimeout:     30 * time.Second,
		MaxRetries:     2,
		RetryDelay:     500 * time.Millisecond,
		LLMCache:       true,
		LLMCacheSize:   1000,
		EmbeddingModel: "text-embedding-3-small",

		IntentStrategy:   StrategyLLM,
		SlotStrategy:     StrategyLLM,
		ResponseStrategy: StrategyLLM,
		FallbackToRules:  true,

		IntentThreshold:    0.3,
		GuardrailThreshold: 0.3,

		EnableProfanity:     true,
		EnablePII:           true,
		EnableScope:         true,
		BlockOutOfScope:     false,
		EnableConfidence:    true,
		EnableHallucination: true,

		TopK:                     5,
		MinSimilarity:            0.1,
		EmbeddingProvider:        EmbeddingHash,
		EmbeddingDimension:       384,
		RetrievalTimeout:         2 * time.Second,
		RetrievalEnrichWithSlots: true,

		CacheEnabled: true,
		CacheTTL:     5 * time.Minute,
		CacheSize:    1000,
		CacheScope:   CacheScopeGlobal,

		DBPath:   DefaultDBPath(),
		LogLevel: "info",
	}
}

// RuleMode returns defaults with every strategy set to its deterministic variant
func RuleMode() Config {
	cfg := Default()
	cfg.LLMProvider = ProviderNone
	cfg.IntentStrategy = StrategyRule
	cfg.SlotStrategy = StrategyRule
	cfg.ResponseStrategy = StrategyTemplate
	return cfg
}

// Load reads configuration from environment variables
func Load() (Config, error) {
	d := Default()
	cfg := Config{
		LLMProvider:    getEnv("RETAIL_LLM_PROVIDER", d.LLMProvider),
		LLMBaseURL:     getEnv("RETAIL_LLM_BASE_URL", d.LLMBaseURL),
		LLMAPIKey:      os.Getenv("OPENAI_API_KEY"),
		ChatModel:      getEnv("RETAIL_CHAT_MODEL", d.ChatModel),
		Temperature:    getEnvFloat("RETAIL_LLM_TEMPERATURE", d.Temperature),
		MaxTokens:      getEnvInt("RETAIL_LLM_MAX_TOKENS", d.MaxTokens),
		LLMTimeout:     getEnvDuration("RETAIL_LLM_TIMEOUT", d.LLMTimeout),
		MaxRetries:     getEnvInt("RETAIL_LLM_MAX_RETRIES", d.MaxRetries),
		RetryDelay:     getEnvDuration("RETAIL_LLM_RETRY_DELAY", d.RetryDelay),
		LLMCache:       getEnvBool("RETAIL_LLM_CACHE", d.LLMCache),
		LLMCacheSize:   getEnvInt("RETAIL_LLM_CACHE_SIZE", d.LLMCacheSize),
		EmbeddingModel: getEnv("RETAIL_EMBEDDING_MODEL", d.EmbeddingModel),

		IntentStrategy:   getEnv("RETAIL_INTENT_STRATEGY", d.IntentStrategy),
		SlotStrategy:     getEnv("RETAIL_SLOT_STRATEGY", d.SlotStrategy),
		ResponseStrategy: getEnv("RETAIL_RESPONSE_STRATEGY", d.ResponseStrategy),
		FallbackToRules:  getEnvBool("RETAIL_FALLBACK_TO_RULES", d.FallbackToRules),

		IntentThreshold:    getEnvFloat("RETAIL_INTENT_THRESHOLD", d.IntentThreshold),
		GuardrailThreshold: getEnvFloat("RETAIL_GUARDRAIL_THRESHOLD", d.GuardrailThreshold),

		EnableProfanity:     getEnvBool("RETAIL_GUARD_PROFANITY", d.EnableProfanity),
		EnablePII:           getEnvBool("RETAIL_GUARD_PII", d.EnablePII),
		EnableScope:         getEnvBool("RETAIL_GUARD_SCOPE", d.EnableScope),
		BlockOutOfScope:     getEnvBool("RETAIL_BLOCK_OUT_OF_SCOPE", d.BlockOutOfScope),
		EnableConfidence:    getEnvBool("RETAIL_GUARD_CONFIDENCE", d.EnableConfidence),
		EnableHallucination: getEnvBool("RETAIL_GUARD_HALLUCINATION", d.EnableHallucination),
		ExtraProfanity:      getEnvList("RETAIL_PROFANITY_EXTRA"),

		TopK:                     getEnvInt("RETAIL_TOP_K", d.TopK),
		MinSimilarity:            getEnvFloat("RETAIL_MIN_SIMILARITY", d.MinSimilarity),
		EmbeddingProvider:        getEnv("RETAIL_EMBEDDING_PROVIDER", d.EmbeddingProvider),
		EmbeddingDimension:       getEnvInt("RETAIL_EMBEDDING_DIMENSION", d.EmbeddingDimension),
		RetrievalTimeout:         getEnvDuration("RETAIL_RETRIEVAL_TIMEOUT", d.RetrievalTimeout),
		RetrievalEnrichWithSlots: getEnvBool("RETAIL_RETRIEVAL_ENRICH", d.RetrievalEnrichWithSlots),

		CacheEnabled: getEnvBool("RETAIL_CACHE_ENABLED", d.CacheEnabled),
		CacheTTL:     getEnvDuration("RETAIL_CACHE_TTL", d.CacheTTL),
		CacheSize:    getEnvInt("RETAIL_CACHE_SIZE", d.CacheSize),
		CacheScope:   getEnv("RETAIL_CACHE_SCOPE", d.CacheScope),

		DBPath:   getEnv("RETAIL_DB_PATH", d.DBPath),
		LogLevel: getEnv("RETAIL_LOG_LEVEL", d.LogLevel),
		LogJSON:  getEnvBool("RETAIL_LOG_JSON", d.LogJSON),
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations
func (c Config) Validate() error {
	if c.IntentThreshold < 0 || c.IntentThreshold > 1 {
		return fmt.Errorf("RETAIL_INTENT_THRESHOLD must be 0-1, got %f", c.IntentThreshold)
	}
	if c.GuardrailThreshold < 0 || c.GuardrailThreshold > 1 {
		return fmt.Errorf("RETAIL_GUARDRAIL_THRESHOLD must be 0-1, got %f", c.GuardrailThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("RETAIL_LLM_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("RETAIL_LLM_TEMPERATURE must be 0-2, got %f", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("RETAIL_LLM_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.LLMTimeout <= 0 || c.RetrievalTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.TopK < 1 || c.TopK > 50 {
		return fmt.Errorf("RETAIL_TOP_K must be 1-50, got %d", c.TopK)
	}
	if c.MinSimilarity < 0 || c.MinSimilarity >= 1 {
		return fmt.Errorf("RETAIL_MIN_SIMILARITY must be in [0, 1), got %f", c.MinSimilarity)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("RETAIL_EMBEDDING_DIMENSION must be positive, got %d", c.EmbeddingDimension)
	}
	if c.CacheEnabled && (c.CacheSize <= 0 || c.CacheTTL <= 0) {
		return fmt.Errorf("cache size and TTL must be positive when caching is enabled")
	}

	switch c.LLMProvider {
	case ProviderOpenAI, ProviderOllama, ProviderNone:
	default:
		return fmt.Errorf("RETAIL_LLM_PROVIDER must be openai, ollama or none, got %q", c.LLMProvider)
	}
	if c.LLMProvider == ProviderOpenAI && c.LLMAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
	}
	for name, v := range map[string]string{
		"RETAIL_INTENT_STRATEGY": c.IntentStrategy,
		"RETAIL_SLOT_STRATEGY":   c.SlotStrategy,
	} {
		if v != StrategyLLM && v != StrategyRule {
			return fmt.Errorf("%s must be llm or rule, got %q", name, v)
		}
	}
	if c.ResponseStrategy != StrategyLLM && c.ResponseStrategy != StrategyTemplate {
		return fmt.Errorf("RETAIL_RESPONSE_STRATEGY must be llm or template, got %q", c.ResponseStrategy)
	}
	switch c.EmbeddingProvider {
	case EmbeddingHash:
	case EmbeddingOpenAI:
		if c.LLMProvider == ProviderNone {
			return fmt.Errorf("RETAIL_EMBEDDING_PROVIDER=openai needs an LLM provider")
		}
	default:
		return fmt.Errorf("RETAIL_EMBEDDING_PROVIDER must be hash or openai, got %q", c.EmbeddingProvider)
	}
	if c.CacheScope != CacheScopeGlobal && c.CacheScope != CacheScopeConversation {
		return fmt.Errorf("RETAIL_CACHE_SCOPE must be global or conversation, got %q", c.CacheScope)
	}
	return nil
}

// LLMEnabled reports whether any component may call the language model
func (c Config) LLMEnabled() bool {
	return c.LLMProvider != ProviderNone
}

// DefaultDataDir returns the default data directory following the XDG spec
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/retail-nlp"
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "retail-nlp")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "retail.db")
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
