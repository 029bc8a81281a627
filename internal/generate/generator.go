// ABOUTME: Response generator contract and the LLM-then-template chain
// ABOUTME: Generation always yields text; failures fall through to templates
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
)

// errEmptyResponse marks a strategy that answered with blank text
var errEmptyResponse = errors.New("empty response")

// Request is everything a generator may use to phrase an answer
type Request struct {
	Query    string
	Intent   models.Intent
	Slots    models.SlotSet
	Route    models.RouteDescriptor
	Passages []models.RetrievedPassage
}

// Response is generated text and the collections it drew on
type Response struct {
	Text     string
	Sources  []string
	Strategy string
}

// Generator produces a response for a routed query
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Chain tries generators in order and ends with the template generator
type Chain struct {
	strategies []Generator
	fallback   *TemplateGenerator
	timeout    time.Duration
	logger     *log.Logger
}

// NewChain creates a Chain. The template generator is always the last resort.
func NewChain(strategies []Generator, timeout time.Duration, logger *log.Logger) *Chain {
	return &Chain{
		strategies: strategies,
		fallback:   NewTemplateGenerator(),
		timeout:    timeout,
		logger:     logging.Component(logger, "generate"),
	}
}

// New builds the chain selected by cfg. backend may be nil in template mode.
func New(cfg config.Config, backend llm.Backend, logger *log.Logger) (*Chain, error) {
	var strategies []Generator
	switch cfg.ResponseStrategy {
	case config.StrategyLLM:
		if backend == nil {
			return nil, fmt.Errorf("response strategy %q requires an LLM backend", cfg.ResponseStrategy)
		}
		strategies = append(strategies, NewLLMGenerator(backend, cfg.Temperature, cfg.MaxTokens))
	case config.StrategyTemplate:
	default:
		return nil, fmt.Errorf("unknown response strategy %q", cfg.ResponseStrategy)
	}
	return NewChain(strategies, cfg.LLMTimeout, logger), nil
}

// Strategies returns the strategy names in attempt order
func (c *Chain) Strategies() []string {
	names := make([]string, 0, len(c.strategies)+1)
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	return append(names, c.fallback.Name())
}

// Generate returns the first non-empty response
func (c *Chain) Generate(ctx context.Context, req Request) Response {
	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		resp, err := c.attempt(ctx, strategy, req)
		if err != nil {
			metrics.IncStrategy("generate", strategy.Name(), "error")
			c.logger.Warn("generator failed, falling back", "strategy", strategy.Name(), "err", err)
			continue
		}
		metrics.IncStrategy("generate", strategy.Name(), "accepted")
		return resp
	}
	return c.Template(req)
}

// Template renders the deterministic response directly
func (c *Chain) Template(req Request) Response {
	resp, _ := c.fallback.Generate(context.Background(), req)
	metrics.IncStrategy("generate", c.fallback.Name(), "accepted")
	return resp
}

func (c *Chain) attempt(ctx context.Context, strategy Generator, req Request) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := strategy.Generate(ctx, req)
	if err != nil {
		return Response{}, llm.Classify(err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return Response{}, errEmptyResponse
	}
	return resp, nil
}
