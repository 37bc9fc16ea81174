package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitProvider throttles outbound requests with a token bucket so a
// burst of questions cannot trip the upstream provider's 429 handling.
type RateLimitProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// WithRateLimit wraps a Provider with a token-bucket limiter. A zero rate
// returns p unchanged.
func WithRateLimit(p Provider, cfg RateLimitConfig) Provider {
	if cfg.RequestsPerSecond <= 0 {
		return p
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimitProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
	}
}

func (r *RateLimitProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}
	return r.inner.Generate(ctx, req)
}

func (r *RateLimitProvider) ModelID() string {
	return r.inner.ModelID()
}
