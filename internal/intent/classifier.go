// ABOUTME: Intent classifier contract and the ordered fallback chain
// ABOUTME: The first strategy that answers confidently wins; nothing is averaged
package intent

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
)

// Classifier assigns an intent to a query
type Classifier interface {
	Classify(ctx context.Context, text string, history []string) (models.Classification, error)
	Name() string
}

// Chain tries classifiers in order until one is accepted
type Chain struct {
	strategies []Classifier
	threshold  float64
	timeout    time.Duration
	logger     *log.Logger
}

// NewChain creates a Chain. Each attempt runs under timeout when it is positive.
func NewChain(strategies []Classifier, threshold float64, timeout time.Duration, logger *log.Logger) *Chain {
	return &Chain{
		strategies: strategies,
		threshold:  threshold,
		timeout:    timeout,
		logger:     logging.Component(logger, "intent"),
	}
}

// New builds the chain selected by cfg. backend may be nil in rule mode.
func New(cfg config.Config, backend llm.Backend, logger *log.Logger) (*Chain, error) {
	var strategies []Classifier
	switch cfg.IntentStrategy {
	case config.StrategyLLM:
		if backend == nil {
			return nil, fmt.Errorf("intent strategy %q requires an LLM backend", cfg.IntentStrategy)
		}
		strategies = append(strategies, NewLLMClassifier(backend, cfg.MaxTokens))
		if cfg.FallbackToRules {
			strategies = append(strategies, NewRuleClassifier())
		}
	case config.StrategyRule:
		strategies = append(strategies, NewRuleClassifier())
	default:
		return nil, fmt.Errorf("unknown intent strategy %q", cfg.IntentStrategy)
	}
	return NewChain(strategies, cfg.IntentThreshold, cfg.LLMTimeout, logger), nil
}

// Strategies returns the strategy names in attempt order
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Classify returns the first accepted classification, or unknown with
// confidence 0 when no strategy is accepted
func (c *Chain) Classify(ctx context.Context, text string, history []string) models.Classification {
	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			break
		}

		result, err := c.attempt(ctx, strategy, text, history)
		switch {
		case err != nil:
			metrics.IncStrategy("intent", strategy.Name(), "error")
			c.logger.Warn("intent strategy failed, falling back", "strategy", strategy.Name(), "err", err)
		case result.Intent == models.IntentUnknown:
			metrics.IncStrategy("intent", strategy.Name(), "unresolved")
			c.logger.Debug("intent strategy unresolved", "strategy", strategy.Name())
		case result.Confidence < c.threshold:
			metrics.IncStrategy("intent", strategy.Name(), "low_confidence")
			c.logger.Debug("intent below threshold", "strategy", strategy.Name(),
				"intent", result.Intent, "confidence", result.Confidence, "threshold", c.threshold)
		default:
			metrics.IncStrategy("intent", strategy.Name(), "accepted")
			result.Strategy = strategy.Name()
			return result
		}
	}

	c.logger.Debug("classification unresolved")
	return models.Unresolved("")
}

func (c *Chain) attempt(ctx context.Context, strategy Classifier, text string, history []string) (models.Classification, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	result, err := strategy.Classify(ctx, text, history)
	if err != nil {
		return models.Classification{}, llm.Classify(err)
	}
	return result, nil
}
