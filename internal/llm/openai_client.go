// ABOUTME: OpenAI-compatible client for completions and embeddings
// ABOUTME: Talks to OpenAI directly or to Ollama through its /v1 compatibility API
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/util"
)

// ClientConfig holds configuration for the OpenAI-compatible client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	MaxRetries     int
	RetryDelay     time.Duration
}

// ClientConfigFrom derives the client configuration from the pipeline config
func ClientConfigFrom(cfg config.Config) ClientConfig {
	cc := ClientConfig{
		APIKey:         cfg.LLMAPIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
	}
	switch cfg.LLMProvider {
	case config.ProviderOllama:
		cc.BaseURL = cfg.LLMBaseURL
		if cc.APIKey == "" {
			// Ollama ignores the key but the client always sends one
			cc.APIKey = "ollama"
		}
	case config.ProviderOpenAI:
		if cfg.LLMBaseURL != config.Default().LLMBaseURL {
			cc.BaseURL = cfg.LLMBaseURL
		}
	}
	return cc
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	maxRetries     int
	retryDelay     time.Duration
	logger         *log.Logger
}

// NewOpenAIClient creates a client with the given configuration
func NewOpenAIClient(cc ClientConfig, logger *log.Logger) (*OpenAIClient, error) {
	if cc.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cc.ChatModel == "" {
		return nil, fmt.Errorf("chat model is required")
	}

	oc := openai.DefaultConfig(cc.APIKey)
	if cc.BaseURL != "" {
		oc.BaseURL = cc.BaseURL
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      cc.ChatModel,
		embeddingModel: cc.EmbeddingModel,
		maxRetries:     cc.MaxRetries,
		retryDelay:     cc.RetryDelay,
		logger:         logging.Component(logger, "llm"),
	}, nil
}

// Complete sends a chat completion request. Transient failures are retried
// with jittered backoff until the context deadline.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       c.chatModel,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	attempt := 0
	err := retry.Do(ctx, util.Backoff(c.retryDelay, c.maxRetries), func(ctx context.Context) error {
		attempt++
		resp, err := c.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			if isTransient(err) {
				c.logger.Debug("completion attempt failed", "attempt", attempt, "err", err)
				return retry.RetryableError(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return retry.RetryableError(errors.New("no choices returned"))
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", Classify(err)
	}
	return content, nil
}

// Embed generates an embedding vector for text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	var embedding []float64
	err := retry.Do(ctx, util.Backoff(c.retryDelay, c.maxRetries), func(ctx context.Context) error {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if len(resp.Data) == 0 {
			return retry.RetryableError(errors.New("no embeddings returned"))
		}

		// Convert []float32 to []float64
		embedding32 := resp.Data[0].Embedding
		embedding = make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding[i] = float64(v)
		}
		return nil
	})
	if err != nil {
		return nil, Classify(err)
	}
	return embedding, nil
}

// Model returns the chat model name
func (c *OpenAIClient) Model() string {
	return c.chatModel
}
