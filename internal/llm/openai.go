package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

var openaiModels = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

// OpenAIProvider answers through the Chat Completions API of OpenAI or any
// compatible endpoint set by BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string

	// webModel serves WebContext requests. Plain chat completions have no
	// grounding, so it is empty for OpenAI and WebContext is ignored.
	webModel string
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  resolveModel(cfg.Model, openaiModels),
		name:   "openai",
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chatReq, err := p.chatRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, p.mapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("no choices in %s response", p.name)}
	}

	choice := resp.Choices[0]
	stop := mapOpenAIStopReason(choice.FinishReason)
	content, err := checkOutput(req, json.RawMessage(choice.Message.Content), stop)
	if err != nil {
		return nil, err
	}

	return &Response{
		Content: content,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model:      resp.Model,
		StopReason: stop,
	}, nil
}

func (p *OpenAIProvider) ModelID() string {
	return p.model
}

// modelFor picks the model for req. Grounding only applies to free text.
func (p *OpenAIProvider) modelFor(req Request) string {
	if req.WebContext && req.Schema == nil && p.webModel != "" {
		return p.webModel
	}
	return p.model
}

func (p *OpenAIProvider) chatRequest(req Request) (openai.ChatCompletionRequest, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:               p.modelFor(req),
		Messages:            openAIMessages(req),
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
	}
	if req.Schema == nil {
		return chatReq, nil
	}

	schema, err := json.Marshal(req.Schema.Definition)
	if err != nil {
		return chatReq, fmt.Errorf("marshal schema %s: %w", req.Schema.Name, err)
	}
	chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   req.Schema.Name,
			Schema: json.RawMessage(schema),
			Strict: true,
		},
	}
	return chatReq, nil
}

func openAIMessages(req Request) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func mapOpenAIStopReason(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonLength:
		return "max_tokens"
	case openai.FinishReasonContentFilter:
		return "error"
	default:
		return "end"
	}
}

func (p *OpenAIProvider) mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(p.name, apiErr.HTTPStatusCode, nil, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(p.name, reqErr.HTTPStatusCode, nil, err)
	}
	return statusError(p.name, 0, nil, err)
}
