package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/tutorly/internal/store"
)

// NewProvider creates a Provider from configuration.
// The base provider is wrapped with logging, retry, rate-limit and timeout
// middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → rate limit → retry → logging → base
	logged := WithLogging(base, eventRepo)
	retried := WithRetry(logged, cfg.Retry)
	limited := WithRateLimit(retried, cfg.RateLimit)

	return WithTimeout(limited, cfg.Timeout), nil
}

// NewDeepProvider returns the provider used for deep-reasoning answers:
// the configured DeepModel when set, otherwise nil so callers fall back to
// the default provider.
func NewDeepProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	if cfg.DeepModel == "" || cfg.Provider == "mock" {
		return nil, nil
	}
	return NewProvider(ctx, cfg.WithModel(cfg.DeepModel), eventRepo)
}

// timeoutProvider bounds every Generate call, retries included.
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so each Generate call is cancelled after d.
// A non-positive d returns p unchanged.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
