package judge

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimitedJudge enforces a token bucket rate limit in front of a
// judge provider. Judge calls are the only externally rate-limited
// operation in the engine, and this keeps them from starving or being
// starved by provider-side limits.
type rateLimitedJudge struct {
	next    CoreJudge
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that paces judge requests
// using a token bucket. The limit parameter sets requests per second;
// burst allows temporary spikes above the sustained rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next CoreJudge) CoreJudge {
		return &rateLimitedJudge{next: next, limiter: limiter}
	}
}

// DoRequest waits for rate limit permission before forwarding the
// request, blocking until a token is available or the context ends.
func (r *rateLimitedJudge) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoRequest(ctx, prompt, opts)
}

// GetModel returns the model name from the wrapped implementation.
func (r *rateLimitedJudge) GetModel() string { return r.next.GetModel() }
