// ABOUTME: Orchestrator running guardrails, classification, slots, routing, retrieval and generation
// ABOUTME: Every well-formed query yields a result; only boundary validation can fail
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/harper/retail-nlp/internal/cache"
	"github.com/harper/retail-nlp/internal/config"
	"github.com/harper/retail-nlp/internal/generate"
	"github.com/harper/retail-nlp/internal/guardrail"
	"github.com/harper/retail-nlp/internal/intent"
	"github.com/harper/retail-nlp/internal/llm"
	"github.com/harper/retail-nlp/internal/logging"
	"github.com/harper/retail-nlp/internal/metrics"
	"github.com/harper/retail-nlp/internal/models"
	"github.com/harper/retail-nlp/internal/retrieval"
	"github.com/harper/retail-nlp/internal/router"
	"github.com/harper/retail-nlp/internal/slots"
)

// UnknownText is the answer when no intent could be resolved
const UnknownText = "I didn't understand that. " + generate.HelpText

const (
	historyTurns         = 3
	historyConversations = 1024
)

// Recorder receives one log record per processed request
type Recorder interface {
	Record(ctx context.Context, rec models.QueryLogRecord) error
}

// Outcome is a PipelineResult plus request bookkeeping
type Outcome struct {
	RequestID   uuid.UUID             `json:"request_id"`
	Result      models.PipelineResult `json:"result"`
	State       models.State          `json:"state"`
	Transitions []models.Transition   `json:"transitions"`
	Cached      bool                  `json:"cached"`
	Latency     time.Duration         `json:"latency"`
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithRecorder sends every request's log record to rec
func WithRecorder(rec Recorder) Option {
	return func(o *Orchestrator) { o.recorder = rec }
}

// WithCache replaces the cache built from config; nil disables caching
func WithCache(c *cache.Cache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithClock overrides the transition clock
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator runs the query pipeline. It is safe for concurrent use.
type Orchestrator struct {
	cfg       config.Config
	guards    *guardrail.Engine
	intents   *intent.Chain
	slots     *slots.Chain
	retriever *retrieval.Engine
	generator *generate.Chain
	cache     *cache.Cache
	historyMu sync.Mutex
	history   *lru.Cache[uuid.UUID, []string]
	recorder  Recorder
	now       func() time.Time
	logger    *log.Logger
}

// New assembles an Orchestrator from cfg. backend may be nil when every
// strategy is deterministic; retriever may be nil to run without retrieval.
func New(cfg config.Config, backend llm.Backend, retriever *retrieval.Engine, logger *log.Logger, opts ...Option) (*Orchestrator, error) {
	intents, err := intent.New(cfg, backend, logger)
	if err != nil {
		return nil, err
	}
	filler, err := slots.New(cfg, backend, logger)
	if err != nil {
		return nil, err
	}
	generator, err := generate.New(cfg, backend, logger)
	if err != nil {
		return nil, err
	}
	history, err := lru.New[uuid.UUID, []string](historyConversations)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:       cfg,
		guards:    guardrail.New(cfg, logger),
		intents:   intents,
		slots:     filler,
		retriever: retriever,
		generator: generator,
		cache:     cache.FromConfig(cfg),
		history:   history,
		now:       time.Now,
		logger:    logging.Component(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Process runs q through the pipeline. The only error is a validation
// error wrapping models.ErrInvalidQuery.
func (o *Orchestrator) Process(ctx context.Context, q models.Query) (*Outcome, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	start := o.now()
	out := &Outcome{RequestID: uuid.New()}

	if o.cache == nil {
		r, res := o.execute(ctx, q)
		out.Result, out.State, out.Transitions = res, r.state, r.transitions
	} else {
		var r *run
		res, cached := o.cache.Do(o.cache.Key(q), func() (models.PipelineResult, bool) {
			var res models.PipelineResult
			r, res = o.execute(ctx, q)
			return res, ctx.Err() == nil
		})
		out.Result, out.Cached = res, cached
		if cached {
			r = newRun(o.now)
			r.to(terminalState(res))
		}
		out.State, out.Transitions = r.state, r.transitions
	}

	out.Latency = o.now().Sub(start)
	o.remember(q)
	metrics.IncOutcome(string(out.State), string(out.Result.Intent))
	o.logger.Info("query processed",
		"request_id", out.RequestID,
		"intent", out.Result.Intent,
		"state", out.State,
		"confidence", out.Result.Confidence,
		"cached", out.Cached,
		"latency", out.Latency)

	o.record(ctx, q, out)
	return out, nil
}

// execute runs the state machine once for q
func (o *Orchestrator) execute(ctx context.Context, q models.Query) (*run, models.PipelineResult) {
	r := newRun(o.now)

	r.to(models.StateInputGuardrail)
	in := o.guards.Check(guardrail.Input{Text: q.Text, Stage: models.StageInput})
	if in.Blocked() {
		r.to(models.StateBlocked)
		return r, blockedResult(models.IntentUnknown, nil, "", in.Reason)
	}
	text := in.Text

	r.to(models.StateClassify)
	cls := o.intents.Classify(ctx, text, o.recent(q.ConversationID))
	if cls.Intent == models.IntentUnknown {
		r.to(models.StateDone)
		return r, models.PipelineResult{
			Intent:       models.IntentUnknown,
			Slots:        map[string]string{},
			ResponseText: UnknownText,
			Sources:      []string{},
		}
	}

	r.to(models.StateSlotFill)
	slotSet := o.slots.Extract(ctx, text, cls.Intent)

	r.to(models.StateRoute)
	route := router.Route(cls.Intent, slotSet)
	confidence := overallConfidence(cls.Confidence, slots.Confidence(cls.Intent, slotSet))
	gate := o.guards.Check(guardrail.Input{Stage: models.StagePreGeneration, Intent: cls.Intent, Confidence: confidence})
	if gate.Blocked() {
		r.to(models.StateBlocked)
		return r, blockedResult(cls.Intent, slotSet, route.Endpoint, gate.Reason)
	}

	req := generate.Request{Query: text, Intent: cls.Intent, Slots: slotSet, Route: route}
	if !route.NoOp {
		r.to(models.StateRetrieve)
		req.Passages = o.retrieve(ctx, text, slotSet)
	}

	r.to(models.StateGenerate)
	var resp generate.Response
	if !route.NoOp && len(req.Passages) == 0 {
		resp = o.generator.Template(req)
	} else {
		resp = o.generator.Generate(ctx, req)
	}

	r.to(models.StateOutputGuardrail)
	check := guardrail.Input{Text: resp.Text, Stage: models.StageOutput, Intent: cls.Intent, Evidence: evidence(req)}
	verdict := o.guards.Check(check)
	if !verdict.Blocked() && verdict.Has(models.ReasonHallucination) {
		o.logger.Warn("regenerating response from template", "intent", cls.Intent, "strategy", resp.Strategy)
		resp = o.generator.Template(req)
		check.Text = resp.Text
		check.SkipHallucination = true
		verdict = o.guards.Check(check)
	}
	if verdict.Blocked() {
		r.to(models.StateBlocked)
		return r, blockedResult(cls.Intent, slotSet, route.Endpoint, verdict.Reason)
	}

	r.to(models.StateDone)
	return r, models.PipelineResult{
		Intent:         cls.Intent,
		Slots:          slotSet.Strings(),
		DefaultedSlots: route.DefaultedNames(),
		RoutedEndpoint: route.Endpoint,
		ResponseText:   verdict.Text,
		Confidence:     confidence,
		Sources:        resp.Sources,
	}
}

func (o *Orchestrator) retrieve(ctx context.Context, text string, slotSet models.SlotSet) []models.RetrievedPassage {
	if o.retriever == nil {
		return []models.RetrievedPassage{}
	}
	query := text
	if o.cfg.RetrievalEnrichWithSlots {
		query = retrieval.EnrichQuery(text, slotSet)
	}
	return o.retriever.Search(ctx, query, o.cfg.TopK)
}

// recent returns the last few queries of the conversation, oldest first
func (o *Orchestrator) recent(id uuid.UUID) []string {
	turns, _ := o.history.Get(id)
	return turns
}

func (o *Orchestrator) remember(q models.Query) {
	o.historyMu.Lock()
	defer o.historyMu.Unlock()

	turns, _ := o.history.Get(q.ConversationID)
	next := append(append([]string{}, turns...), q.Text)
	if len(next) > historyTurns {
		next = next[len(next)-historyTurns:]
	}
	o.history.Add(q.ConversationID, next)
}

func (o *Orchestrator) record(ctx context.Context, q models.Query, out *Outcome) {
	if o.recorder == nil {
		return
	}
	rec := models.QueryLogRecord{
		ID:             out.RequestID,
		ConversationID: q.ConversationID,
		UserRole:       q.Role,
		QueryText:      q.Text,
		Result:         out.Result,
		Transitions:    out.Transitions,
		Latency:        out.Latency,
		Cached:         out.Cached,
		CreatedAt:      o.now().UTC(),
	}
	if err := o.recorder.Record(context.WithoutCancel(ctx), rec); err != nil {
		o.logger.Error("failed to record query", "request_id", out.RequestID, "err", err)
	}
}

// overallConfidence combines stage confidences; it never exceeds the intent's
func overallConfidence(intentConf, slotConf float64) float64 {
	c := intentConf * slotConf
	switch {
	case c < 0:
		return 0
	case c > intentConf:
		return intentConf
	default:
		return c
	}
}

func blockedResult(in models.Intent, slotSet models.SlotSet, endpoint string, reason models.GuardrailReason) models.PipelineResult {
	return models.PipelineResult{
		Intent:         in,
		Slots:          slotSet.Strings(),
		RoutedEndpoint: endpoint,
		ResponseText:   guardrail.RefusalText,
		Confidence:     0,
		Sources:        []string{},
		Blocked:        true,
		BlockReason:    reason,
	}
}

// evidence lists the strings a generated answer may quote numbers from
func evidence(req generate.Request) []string {
	out := []string{req.Query, req.Route.Endpoint}
	out = append(out, req.Slots.Values()...)
	for _, p := range req.Passages {
		out = append(out, p.Text)
	}
	return out
}

func terminalState(res models.PipelineResult) models.State {
	if res.Blocked {
		return models.StateBlocked
	}
	return models.StateDone
}
