// ABOUTME: Slot filler contract, fallback chain and slot confidence
// ABOUTME: Intents without a slot schema skip extraction entirely
package slots

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
	"github.com/harper/retail-nlp/internal/router"
)

// Filler extracts slot values for an intent
type Filler interface {
	Extract(ctx context.Context, text string, intent models.Intent) (models.SlotSet, error)
	Name() string
}

// Chain runs the primary filler and falls back on error
type Chain struct {
	strategies []Filler
	timeout    time.Duration
	logger     *log.Logger
}

// NewChain creates a Chain. Each attempt runs under timeout when it is positive.
func NewChain(strategies []Filler, timeout time.Duration, logger *log.Logger) *Chain {
	return &Chain{
		strategies: strategies,
		timeout:    timeout,
		logger:     logging.Component(logger, "slots"),
	}
}

// New builds the chain selected by cfg. backend may be nil in rule mode.
func New(cfg config.Config, backend llm.Backend, logger *log.Logger) (*Chain, error) {
	var strategies []Filler
	switch cfg.SlotStrategy {
	case config.StrategyLLM:
		if backend == nil {
			return nil, fmt.Errorf("slot strategy %q requires an LLM backend", cfg.SlotStrategy)
		}
		strategies = append(strategies, NewLLMFiller(backend, cfg.MaxTokens))
		if cfg.FallbackToRules {
			strategies = append(strategies, NewRuleFiller())
		}
	case config.StrategyRule:
		strategies = append(strategies, NewRuleFiller())
	default:
		return nil, fmt.Errorf("unknown slot strategy %q", cfg.SlotStrategy)
	}
	return NewChain(strategies, cfg.LLMTimeout, logger), nil
}

// Strategies returns the strategy names in attempt order
func (c *Chain) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract returns the first successful strategy's slots, filtered to the
// intent's schema. When every strategy fails the set is empty.
func (c *Chain) Extract(ctx context.Context, text string, intent models.Intent) models.SlotSet {
	if len(models.SlotSchema(intent)) == 0 {
		return models.SlotSet{}
	}

	for _, strategy := range c.strategies {
		if ctx.Err() != nil {
			break
		}
		set, err := c.attempt(ctx, strategy, text, intent)
		if err != nil {
			metrics.IncStrategy("slots", strategy.Name(), "error")
			c.logger.Warn("slot strategy failed, falling back", "strategy", strategy.Name(), "err", err)
			continue
		}
		metrics.IncStrategy("slots", strategy.Name(), "accepted")
		return set.Filter(intent)
	}
	return models.SlotSet{}
}

func (c *Chain) attempt(ctx context.Context, strategy Filler, text string, intent models.Intent) (models.SlotSet, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	set, err := strategy.Extract(ctx, text, intent)
	if err != nil {
		return nil, llm.Classify(err)
	}
	return set, nil
}

// Confidence scores how complete set is for intent's route: each missing
// required slot costs 0.15, bottoming out at 0.5
func Confidence(intent models.Intent, set models.SlotSet) float64 {
	missing := 0
	for _, name := range router.Required(intent) {
		if set[name] == "" {
			missing++
		}
	}
	conf := 1 - 0.15*float64(missing)
	if conf < 0.5 {
		return 0.5
	}
	return conf
}
