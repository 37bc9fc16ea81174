package llm

import (
	"fmt"
	"strings"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// onlineSuffix selects OpenRouter's web-search variant of a model, which
	// prepends live search results to the prompt.
	onlineSuffix = ":online"
)

// OpenRouterProvider is an OpenAIProvider pointed at OpenRouter. WebContext
// requests go to the model's :online variant.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	inner, err := NewOpenAIProvider(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: baseURL})
	if err != nil {
		return nil, err
	}
	inner.name = "openrouter"
	inner.webModel = onlineModel(inner.model)

	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

func onlineModel(model string) string {
	if strings.HasSuffix(model, onlineSuffix) {
		return model
	}
	return model + onlineSuffix
}
