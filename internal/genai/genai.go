// Package genai provides GenAI-enhanced text operations using the OpenAI API.
//
// The client wraps chat completions with a per-call timeout, bounded retry,
// and a circuit breaker so that engine failures degrade quickly: callers
// always have a deterministic rule-based fallback and must never surface an
// engine error to the customer.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"
)

// ClientInterface defines the generation operations consumed by the intent
// classifier and the negotiation handler.
type ClientInterface interface {
	// Generate produces a completion for a system + user prompt pair.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateWithMessages produces a completion over a full message array.
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature float64
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithMaxRetries sets the retry bound per call.
func WithMaxRetries(n int) Option {
	return func(o *Opts) { o.MaxRetries = n }
}

// Client wraps the OpenAI chat completion API behind a circuit breaker.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
	retries int
	temp    float64
	breaker *gobreaker.CircuitBreaker
}

// NewClient initializes a GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:       openai.ChatModelGPT4oMini,
		Timeout:     15 * time.Second,
		MaxRetries:  2,
		Temperature: 0.3,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	slog.Debug("genai.NewClient: creating client", "model", cfg.Model, "timeout", cfg.Timeout, "maxRetries", cfg.MaxRetries)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai-chat",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
	})

	return &Client{
		api:     openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		retries: cfg.MaxRetries,
		temp:    cfg.Temperature,
		breaker: breaker,
	}, nil
}

// Generate produces a completion for a system + user prompt pair.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.GenerateWithMessages(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	})
}

// GenerateWithMessages produces a completion over a full message array.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		var lastErr error
		for attempt := 0; attempt <= c.retries; attempt++ {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			text, err := c.complete(ctx, messages)
			if err == nil {
				return text, nil
			}
			lastErr = err
			slog.Warn("genai.GenerateWithMessages: completion attempt failed", "attempt", attempt+1, "error", err)
		}
		return "", lastErr
	})
	if err != nil {
		slog.Error("genai.GenerateWithMessages: all attempts failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	return result.(string), nil
}

func (c *Client) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temp),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
