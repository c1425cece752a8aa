// Package flow implements the conversation state machine that drives a
// collection dialogue: greeting, identity verification, debt disclosure,
// payment-intent classification, paid-claim verification, negotiation, and
// closing. Stage handlers receive the conversation state by value and return
// an updated copy; the engine routes between them until the state says wait
// for the customer or conversation complete.
package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/MannanGosrani/Debt-Collection-Agent/internal/intent"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/models"
	"github.com/MannanGosrani/Debt-Collection-Agent/internal/util"
)

// Config carries the business parameters of the collection flow. These are
// policy values configured per deployment, not domain constants.
type Config struct {
	// DailyLateFeeRate is the late-charge accrual rate per day past due,
	// as a fraction of the outstanding amount.
	DailyLateFeeRate float64
	// SettlementDiscount is the discount fraction offered for immediate
	// settlement.
	SettlementDiscount float64
	// SettlementWindowDays is how long the settlement offer stays open.
	SettlementWindowDays int
	// PaymentBaseURL is the payment portal base for generated links.
	PaymentBaseURL string
	// MaxTurnHops bounds stage-handler applications within one turn.
	MaxTurnHops int
}

// DefaultConfig returns the standard business parameters.
func DefaultConfig() Config {
	return Config{
		DailyLateFeeRate:     0.02,
		SettlementDiscount:   0.05,
		SettlementWindowDays: 7,
		PaymentBaseURL:       util.DefaultPaymentBaseURL,
		MaxTurnHops:          25,
	}
}

// Recorder persists the business records the flow finalizes. Implementations
// return the externally issued record ID.
type Recorder interface {
	SavePromise(ctx context.Context, p models.PromiseToPay) (string, error)
	SaveDispute(ctx context.Context, d models.Dispute) (string, error)
	SaveCallRecord(ctx context.Context, r models.CallRecord) (string, error)
}

// Generator produces the phrasing of a message. It is never allowed to
// decide what happens next; all control flow is owned by the state machine.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// IntentClassifier maps customer utterances to intent labels and payment
// proof verdicts.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance, questionContext string) intent.Label
	VerifyProof(ctx context.Context, reply string) intent.ProofVerdict
}

// Engine applies stage handlers to conversation state.
type Engine struct {
	cfg        Config
	recorder   Recorder
	classifier IntentClassifier
	generator  Generator
	clock      func() time.Time
}

// Opts holds configuration options for the Engine.
type Opts struct {
	Config    *Config
	Generator Generator
	Clock     func() time.Time
}

// Option configures Engine behavior.
type Option func(*Opts)

// WithConfig overrides the default business parameters.
func WithConfig(cfg Config) Option {
	return func(o *Opts) { o.Config = &cfg }
}

// WithGenerator supplies the text-generation collaborator used for the
// default negotiation reply. Without one the engine uses fixed phrasing.
func WithGenerator(g Generator) Option {
	return func(o *Opts) { o.Generator = g }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// NewEngine creates a flow engine. The recorder is required; the classifier
// may be rule-only (see intent.NewClassifier with a nil engine).
func NewEngine(recorder Recorder, classifier IntentClassifier, opts ...Option) *Engine {
	var o Opts
	for _, opt := range opts {
		opt(&o)
	}
	cfg := DefaultConfig()
	if o.Config != nil {
		cfg = *o.Config
	}
	if cfg.MaxTurnHops <= 0 {
		cfg.MaxTurnHops = 25
	}
	clock := o.Clock
	if clock == nil {
		clock = time.Now
	}
	slog.Debug("flow.NewEngine: creating engine", "maxTurnHops", cfg.MaxTurnHops)
	return &Engine{cfg: cfg, recorder: recorder, classifier: classifier, generator: o.Generator, clock: clock}
}

// today returns the engine clock's date formatted as DD-MM-YYYY.
func (e *Engine) today() string {
	return e.clock().Format("02-01-2006")
}
