package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/tutorly/internal/logger"
)

// RetryProvider retries transient failures with capped exponential backoff
// and ±20% jitter.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry wraps p with retries. A MaxAttempts of one or less returns p
// unchanged.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts <= 1 {
		return p
	}
	return &RetryProvider{inner: p, cfg: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	schemaRetried := false
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= r.cfg.MaxAttempts || !retryable(err, &schemaRetried) {
			return nil, err
		}

		wait := r.backoff(attempt, err)
		logger.FromContext(ctx).Debug("retrying LLM request",
			"purpose", PurposeFrom(ctx),
			"attempt", attempt,
			"wait", wait,
			"err", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether another attempt could succeed. A schema
// mismatch gets a single second chance since the next sample may conform.
func retryable(err error, schemaRetried *bool) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.As(err, new(*ErrMaxTokensExceeded)), errors.As(err, new(*ErrRequestRejected)):
		return false
	case errors.As(err, new(*ErrInvalidResponse)):
		if *schemaRetried {
			return false
		}
		*schemaRetried = true
		return true
	default:
		return true
	}
}

// backoff is the wait before attempt+1. A provider's Retry-After wins.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.cfg.InitialWait) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	wait = min(wait, float64(r.cfg.MaxWait))
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(max(wait, 0))
}
