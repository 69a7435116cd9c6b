// Package llm calls the upstream language model that turns free text into a
// structured command. It owns rate limiting and the per-call timeout; it never
// retries.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/taskmaster/internal/apperr"
)

// Default configuration values.
const (
	DefaultProvider    = "openai"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultClaudeModel = "claude-3-5-haiku-latest"
	DefaultMaxTokens   = 256
	DefaultTimeout     = 30 * time.Second
	DefaultRateLimit   = 5.0
	DefaultBurst       = 5
)

// ErrMissingAPIKey is returned by New when no credential is configured.
var ErrMissingAPIKey = errors.New("llm api key missing")

// Request is a single-turn chat request: one system instruction and one user message.
type Request struct {
	System string
	User   string
}

// Client completes a Request and returns the raw model text.
//
// Failures of the call itself are returned as apperr KindUpstream errors.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Config holds provider configuration.
type Config struct {
	Provider    string
	Model       string
	APIKey      string `json:"-"` // Never serialize API keys
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RateLimit   float64 // requests per second, 0 disables limiting
	Burst       int
}

type langchainClient struct {
	model       llms.Model
	provider    string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	limiter     *rate.Limiter
}

// New creates a Client for the configured provider ("openai" or "anthropic").
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	provider := cfg.Provider
	if provider == "" {
		provider = DefaultProvider
	}

	model, err := newModel(provider, cfg)
	if err != nil {
		return nil, err
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = DefaultBurst
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &langchainClient{
		model:       model,
		provider:    provider,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		limiter:     limiter,
	}, nil
}

func newModel(provider string, cfg Config) (llms.Model, error) {
	switch provider {
	case "openai":
		modelName := cfg.Model
		if modelName == "" {
			modelName = DefaultOpenAIModel
		}
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(modelName),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		m, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		return m, nil
	case "anthropic":
		modelName := cfg.Model
		if modelName == "" {
			modelName = DefaultClaudeModel
		}
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.APIKey),
			anthropic.WithModel(modelName),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		m, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating anthropic client: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

// Complete sends the system instruction and user text to the model.
func (c *langchainClient) Complete(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", upstreamError(ctx, "rate limiter", err)
		}
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, req.User),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", upstreamError(ctx, c.provider+" request failed", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", apperr.Upstream(c.provider+" request failed", errors.New("empty response from model"))
	}

	return resp.Choices[0].Content, nil
}

// upstreamError classifies a failed call, reporting deadline hits as timeouts.
func upstreamError(ctx context.Context, message string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Upstream("model request timed out", err)
	}
	return apperr.Upstream(message, err)
}

// Unavailable returns a Client that fails every call with reason as an upstream
// error. Used when the daemon starts without a credential.
func Unavailable(reason error) Client {
	return ClientFunc(func(ctx context.Context, req Request) (string, error) {
		return "", apperr.Upstream("llm unavailable", reason)
	})
}

// Ensure interfaces are implemented at compile time.
var _ Client = (*langchainClient)(nil)
var _ Client = ClientFunc(nil)
