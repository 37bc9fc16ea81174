package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
	RateLimit  RateLimitConfig

	// DeepModel, when set, is used instead of the provider's default model
	// for deep-reasoning answers. Lightweight answers and query analysis
	// always use the default model.
	DeepModel string

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 60s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for OpenAI-compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// RateLimitConfig caps outbound request rate. Zero RequestsPerSecond
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from TUTORLY_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("TUTORLY_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	if m := os.Getenv("TUTORLY_DEEP_MODEL"); m != "" {
		cfg.DeepModel = m
	}

	if k := os.Getenv("TUTORLY_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("TUTORLY_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := os.Getenv("TUTORLY_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("TUTORLY_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("TUTORLY_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("TUTORLY_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("TUTORLY_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	if k := os.Getenv("TUTORLY_OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}
	if m := os.Getenv("TUTORLY_OPENROUTER_MODEL"); m != "" {
		cfg.OpenRouter.Model = m
	}

	if v := os.Getenv("TUTORLY_LLM_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps >= 0 {
			cfg.RateLimit.RequestsPerSecond = rps
		}
	}
	if v := os.Getenv("TUTORLY_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// DiscoverConfig checks standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Resolve returns the env-derived config when it names a usable provider,
// otherwise the first discovered provider, otherwise the env config as-is
// (which then fails Validate with a useful message).
func Resolve() Config {
	cfg := ConfigFromEnv()
	if os.Getenv("TUTORLY_LLM_PROVIDER") != "" || cfg.Validate() == nil {
		return cfg
	}
	if discovered, ok := DiscoverConfig(); ok {
		discovered.DeepModel = cfg.DeepModel
		discovered.RateLimit = cfg.RateLimit
		discovered.Timeout = cfg.Timeout
		return discovered
	}
	return cfg
}

// WithModel returns a copy of the config whose selected provider uses model.
func (c Config) WithModel(model string) Config {
	switch c.Provider {
	case "anthropic":
		c.Anthropic.Model = model
	case "openai":
		c.OpenAI.Model = model
	case "gemini":
		c.Gemini.Model = model
	case "openrouter":
		c.OpenRouter.Model = model
	}
	return c
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("TUTORLY_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("TUTORLY_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("TUTORLY_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("TUTORLY_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit.RequestsPerSecond)
	}
	return nil
}
