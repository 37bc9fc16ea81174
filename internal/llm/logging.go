package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/store"
)

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	eventRepo store.EventRepo
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, repo store.EventRepo) Provider {
	return &LoggingProvider{inner: p, eventRepo: repo}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    providerName(l.inner),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		WebContext:  req.WebContext,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	log := logger.FromContext(ctx)
	log.Debug("llm request", "purpose", purpose, "model", data.Model, "latency_ms", latencyMs, "ok", err == nil)

	// A failed event write never fails the request.
	if l.eventRepo != nil {
		if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
			log.Warn("failed to record LLM request event", "err", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func providerName(p Provider) string {
	switch p.(type) {
	case *AnthropicProvider:
		return "anthropic"
	case *OpenRouterProvider:
		return "openrouter"
	case *OpenAIProvider:
		return "openai"
	case *GeminiProvider:
		return "gemini"
	case *MockProvider:
		return "mock"
	default:
		return p.ModelID()
	}
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.WebContext {
		b.WriteString("[web context: on]\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(schemaDef)
			b.WriteString("\n")
		}
	}

	return b.String()
}
