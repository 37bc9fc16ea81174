package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the text-generation collaborator used by the router, the
// synthesizer and the assessment service. It is treated as opaque: callers
// only see a Request going in and a Response or a typed error coming out.
type Provider interface {
	// Generate sends a prompt to the LLM. When req.Schema is set the
	// provider asks for structured output and validates the result against
	// the schema before returning it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt (tutor persona, output rules).
	System string

	// Messages is the conversation. Tutoring calls are single turn, so this
	// usually holds one user message.
	Messages []Message

	// Schema constrains the response to a JSON document. Nil means free text.
	Schema *Schema

	// WebContext asks the provider to ground the answer in live internet
	// results. Providers without a grounding tool ignore it.
	WebContext bool

	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies the schema. Kebab-case, e.g. "query-analysis".
	Name string

	// Description is sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema document as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the validated JSON document when a Schema was requested,
	// otherwise the raw generated text.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is normalized to "end", "max_tokens" or "error".
	StopReason string
}

// Text returns the response as plain text. Providers hand free text back
// unquoted, but a JSON string literal is decoded so that either shape reads
// the same to callers.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	raw := strings.TrimSpace(string(r.Content))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err == nil {
			return s
		}
	}
	return raw
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// UserPrompt builds a single-turn request body.
func UserPrompt(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}
