// Package judge provides the external judge-model transport used by the
// LLM judge scorer. It abstracts judge providers (OpenAI, Anthropic)
// behind a common interface and composes cross-cutting concerns such as
// rate limiting through a middleware chain, so the scoring layer never
// couples to a specific vendor SDK.
//
// Basic usage:
//
//	client, err := judge.NewClient("openai", judge.ClientConfig{
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-4o-mini",
//	    Middleware: []judge.Middleware{
//	        judge.RateLimitMiddleware(5, 10),
//	    },
//	})
//	verdict, err := client.Complete(ctx, prompt, nil)
package judge

import (
	"context"
	"fmt"
	"time"

	"github.com/peerbench/peerbench/internal/ports"
)

// CoreJudge defines the minimal interface a judge provider must
// implement. Middleware wraps any conforming implementation.
type CoreJudge interface {
	// DoRequest sends a prompt to the judge model and returns the raw
	// response text. The opts map allows provider-specific settings
	// such as temperature or max tokens.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Middleware wraps a CoreJudge to add cross-cutting functionality such
// as rate limiting without modifying provider logic.
type Middleware func(CoreJudge) CoreJudge

// ClientConfig holds configuration for creating a judge client.
type ClientConfig struct {
	// APIKey authenticates requests to the judge provider.
	APIKey string

	// Model specifies which judge model to use.
	Model string

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the default.
	BaseURL string

	// Timeout sets the maximum duration for individual requests.
	// Zero means no timeout.
	Timeout time.Duration

	// Middleware is applied in order, the first entry outermost.
	Middleware []Middleware
}

// Client implements ports.JudgeClient by delegating to a middleware-
// wrapped provider implementation.
type Client struct {
	core CoreJudge
}

var _ ports.JudgeClient = (*Client)(nil)

// NewClient creates a judge client for the named provider, assembling
// the middleware chain and validating configuration.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown judge provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create judge provider: %w", err)
	}

	// Apply middleware in reverse order so the first entry is the
	// outermost wrapper.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// Complete sends a prompt to the judge model and returns the raw
// response text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// GetModel returns the configured judge model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory creates a CoreJudge implementation from
// configuration.
type ProviderFactory func(ClientConfig) (CoreJudge, error)

// Provider factory registry. Providers register themselves in init so
// an unknown provider name fails at client construction.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom judge provider factory,
// allowing extension without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
