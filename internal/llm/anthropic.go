package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// anthropicSearchUses caps server-side searches per grounded answer.
const anthropicSearchUses = 3

// AnthropicProvider answers through the Messages API. A free-text request
// with WebContext runs with the server-side web search tool attached.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates an Anthropic provider. The SDK's own
// retries are disabled; WithRetry owns that policy.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{
		client: &client,
		model:  resolveModel(cfg.Model, anthropicModels),
	}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msg, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		return nil, mapAnthropicError(err)
	}

	stop := mapAnthropicStopReason(msg.StopReason)
	content, err := anthropicText(msg)
	if err != nil {
		return nil, err
	}
	if content, err = checkOutput(req, content, stop); err != nil {
		return nil, err
	}

	return &Response{
		Content:    content,
		Usage:      mapAnthropicUsage(msg.Usage),
		Model:      string(msg.Model),
		StopReason: stop,
	}, nil
}

func (p *AnthropicProvider) ModelID() string {
	return p.model
}

func (p *AnthropicProvider) params(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  anthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	// Structured output and search results don't mix; the schema wins.
	switch {
	case req.Schema != nil:
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	case req.WebContext:
		params.Tools = []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(anthropicSearchUses),
			},
		}}
	}
	return params
}

func anthropicMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

// anthropicText joins the text blocks of msg. Grounded answers arrive as
// several text blocks interleaved with search tool blocks.
func anthropicText(msg *anthropic.Message) (json.RawMessage, error) {
	var b strings.Builder
	found := false
	for _, block := range msg.Content {
		if block.Type != "text" {
			continue
		}
		b.WriteString(block.Text)
		found = true
	}
	if !found {
		return nil, &ErrInvalidResponse{Err: errors.New("no text content in Anthropic response")}
	}
	return json.RawMessage(b.String()), nil
}

func mapAnthropicUsage(u anthropic.Usage) Usage {
	return Usage{
		InputTokens:  int(u.InputTokens),
		OutputTokens: int(u.OutputTokens),
		TotalTokens:  int(u.InputTokens + u.OutputTokens),
	}
}

func mapAnthropicStopReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonMaxTokens:
		return "max_tokens"
	case anthropic.StopReasonRefusal:
		return "error"
	default:
		return "end"
	}
}

func mapAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return statusError("anthropic", 0, nil, err)
	}
	var header http.Header
	if apiErr.Response != nil {
		header = apiErr.Response.Header
	}
	return statusError("anthropic", apiErr.StatusCode, header, err)
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names are taken as model IDs.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
