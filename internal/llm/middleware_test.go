package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/tutorly/internal/store"
)

var analysisSchema = &Schema{
	Name: "query-analysis",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"complexity": map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		},
		"required": []any{"complexity"},
	},
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"complexity":4}`)},
		MockResponse{Content: json.RawMessage(`{"complexity":42}`)},
	)

	if _, err := mock.Generate(context.Background(), Request{Schema: analysisSchema}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := mock.Generate(context.Background(), Request{Schema: analysisSchema})
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestMockProvider_FreeTextAndLastCall(t *testing.T) {
	mock := NewMockProvider(MockText("Plants turn light into sugar."))

	if _, ok := mock.LastCall(); ok {
		t.Fatal("expected no last call before Generate")
	}

	resp, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("What is photosynthesis?")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Text(); got != "Plants turn light into sugar." {
		t.Fatalf("Text() = %q", got)
	}

	req, ok := mock.LastCall()
	if !ok || req.Messages[0].Role != RoleUser || req.Messages[0].Content != "What is photosynthesis?" {
		t.Fatalf("unexpected last call: %+v", req)
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{"nil", nil, ""},
		{"raw", &Response{Content: json.RawMessage("  hello \n")}, "hello"},
		{"quoted", &Response{Content: json.RawMessage(`"line one\nline two"`)}, "line one\nline two"},
		{"object", &Response{Content: json.RawMessage(`{"a":1}`)}, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.Text(); got != tt.want {
				t.Fatalf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithRateLimit_ZeroRateIsPassthrough(t *testing.T) {
	mock := NewMockProvider()
	if p := WithRateLimit(mock, RateLimitConfig{}); p != Provider(mock) {
		t.Fatalf("expected unwrapped provider, got %T", p)
	}
}

func TestWithRateLimit_WaitHonoursContext(t *testing.T) {
	mock := NewMockProvider(MockText("one"), MockText("two"))
	p := WithRateLimit(mock, RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Generate(ctx, Request{}); err == nil {
		t.Fatal("expected the limiter to give up before the deadline")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", mock.CallCount())
	}
	if p.ModelID() != "mock" {
		t.Fatalf("ModelID() = %q", p.ModelID())
	}
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestWithTimeout(t *testing.T) {
	if p := WithTimeout(blockingProvider{}, 0); p != Provider(blockingProvider{}) {
		t.Fatalf("expected unwrapped provider, got %T", p)
	}

	p := WithTimeout(blockingProvider{}, 10*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if p.ModelID() != "blocking" {
		t.Fatalf("ModelID() = %q", p.ModelID())
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*MockProvider); !ok {
		t.Fatalf("expected *MockProvider, got %T", p)
	}

	if _, err := NewProvider(context.Background(), Config{Provider: "carrier-pigeon"}, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewDeepProvider(t *testing.T) {
	p, err := NewDeepProvider(context.Background(), Config{Provider: "openai"}, nil)
	if err != nil || p != nil {
		t.Fatalf("expected nil provider without a deep model, got %v, %v", p, err)
	}

	p, err = NewDeepProvider(context.Background(), Config{Provider: "mock", DeepModel: "big"}, nil)
	if err != nil || p != nil {
		t.Fatalf("expected nil provider for mock, got %v, %v", p, err)
	}
}

func TestConfigWithModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"
	deep := cfg.WithModel("gpt-4o")
	if deep.OpenAI.Model != "gpt-4o" {
		t.Fatalf("expected gpt-4o, got %q", deep.OpenAI.Model)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatal("WithModel must not modify the receiver")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TUTORLY_LLM_PROVIDER", "openai")
	t.Setenv("TUTORLY_OPENAI_API_KEY", "sk-test")
	t.Setenv("TUTORLY_DEEP_MODEL", "gpt-4o")
	t.Setenv("TUTORLY_LLM_RPS", "5")
	t.Setenv("TUTORLY_LLM_TIMEOUT", "15s")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-test" || cfg.DeepModel != "gpt-4o" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.RateLimit.RequestsPerSecond != 5 || cfg.Timeout != 15*time.Second {
		t.Fatalf("unexpected limits: %+v %v", cfg.RateLimit, cfg.Timeout)
	}
}

func TestWithLogging_RecordsEvents(t *testing.T) {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("Mitochondria make ATP."), Usage: Usage{InputTokens: 12, OutputTokens: 6}},
		MockError(&ErrProviderUnavailable{Err: errors.New("down")}),
	)
	p := WithLogging(mock, st.EventRepo())

	ctx := WithPurpose(t.Context(), "synthesize-deep")
	if _, err := p.Generate(ctx, Request{Messages: UserPrompt("What do mitochondria do?"), WebContext: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, Request{Messages: UserPrompt("again")}); err == nil {
		t.Fatal("expected provider error")
	}

	events, err := st.EventRepo().QueryLLMEvents(t.Context(), store.QueryOpts{Purpose: "synthesize-deep"})
	if err != nil {
		t.Fatalf("query events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	var ok, failed int
	for _, e := range events {
		if e.Provider != "mock" {
			t.Errorf("provider = %q, want mock", e.Provider)
		}
		if e.Success {
			ok++
			if !e.WebContext || e.InputTokens != 12 || !strings.Contains(e.RequestBody, "What do mitochondria do?") {
				t.Errorf("unexpected success event: %+v", e)
			}
		} else {
			failed++
			if e.ErrorMessage == "" {
				t.Error("failed event should carry the error message")
			}
		}
	}
	if ok != 1 || failed != 1 {
		t.Fatalf("expected one success and one failure, got %d/%d", ok, failed)
	}
}
