package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

var gradeSchema = &Schema{
	Name:        "quiz-grade",
	Description: "Grade for one quiz answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic":    map[string]any{"type": "string"},
			"score":    map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"verdict":  map[string]any{"type": "string", "enum": []any{"correct", "partial", "incorrect"}},
			"feedback": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required": []any{"topic", "score"},
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"complete", `{"topic":"fractions","score":80,"verdict":"partial","feedback":["check the denominator"]}`, false},
		{"optional fields omitted", `{"topic":"fractions","score":100}`, false},
		{"missing score", `{"topic":"fractions"}`, true},
		{"score as string", `{"topic":"fractions","score":"eighty"}`, true},
		{"score out of range", `{"topic":"fractions","score":120}`, true},
		{"unknown verdict", `{"topic":"fractions","score":40,"verdict":"maybe"}`, true},
		{"feedback not strings", `{"topic":"fractions","score":40,"feedback":[1,2]}`, true},
		{"malformed", `{topic: fractions}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		err := validateResponse(gradeSchema, json.RawMessage(tt.raw))
		if !tt.wantErr {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		var invalid *ErrInvalidResponse
		if !errors.As(err, &invalid) {
			t.Errorf("%s: expected ErrInvalidResponse, got %T (%v)", tt.name, err, err)
			continue
		}
		if string(invalid.Content) != tt.raw {
			t.Errorf("%s: error content = %q, want the raw response", tt.name, invalid.Content)
		}
	}
}

func TestValidateResponse_NilSchemaAcceptsText(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage("Fractions describe parts of a whole.")); err != nil {
		t.Fatalf("nil schema: %v", err)
	}
}

func TestCheckOutput(t *testing.T) {
	t.Run("free text untouched", func(t *testing.T) {
		text := json.RawMessage("```python\nprint(1/2)\n```")
		got, err := checkOutput(Request{}, text, "max_tokens")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != string(text) {
			t.Fatalf("content = %q, want unchanged", got)
		}
	})

	t.Run("fenced json unwrapped", func(t *testing.T) {
		fenced := json.RawMessage("```json\n{\"topic\":\"fractions\",\"score\":70}\n```")
		got, err := checkOutput(Request{Schema: gradeSchema}, fenced, "end")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"topic":"fractions","score":70}` {
			t.Fatalf("content = %q", got)
		}
	})

	t.Run("bare fence unwrapped", func(t *testing.T) {
		got, err := checkOutput(Request{Schema: gradeSchema}, json.RawMessage("```{\"topic\":\"ratios\",\"score\":5}```"), "end")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"topic":"ratios","score":5}` {
			t.Fatalf("content = %q", got)
		}
	})

	t.Run("truncated structured output", func(t *testing.T) {
		_, err := checkOutput(Request{Schema: gradeSchema}, json.RawMessage(`{"topic":"frac`), "max_tokens")
		var maxTok *ErrMaxTokensExceeded
		if !errors.As(err, &maxTok) {
			t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
		}
	})

	t.Run("schema mismatch", func(t *testing.T) {
		_, err := checkOutput(Request{Schema: gradeSchema}, json.RawMessage(`{"score":70}`), "end")
		var invalid *ErrInvalidResponse
		if !errors.As(err, &invalid) {
			t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
		}
	})
}

func TestSchemaCompiledOnce(t *testing.T) {
	s := &Schema{Name: "compile-once", Definition: map[string]any{"type": "string"}}
	first, err := schemaFor(s)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	second, err := schemaFor(s)
	if err != nil {
		t.Fatalf("compile again: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached schema on the second call")
	}
}
