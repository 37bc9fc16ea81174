package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds compiled schemas by Schema.Name. Names are package-level
// constants, so the cache is bounded.
var compiled sync.Map // string -> *jsonschema.Schema

// checkOutput finishes a provider response. Free text passes through
// untouched. Structured output has any markdown fence removed, must not be
// truncated and must validate against the schema.
func checkOutput(req Request, content json.RawMessage, stopReason string) (json.RawMessage, error) {
	if req.Schema == nil {
		return content, nil
	}
	content = stripCodeFence(content)
	if stopReason == "max_tokens" {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return content, nil
}

// validateResponse reports an *ErrInvalidResponse unless raw is JSON that
// satisfies schema. A nil schema accepts anything.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	sch, err := schemaFor(schema)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("compile schema %q: %w", schema.Name, err)}
	}

	if err := sch.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: schema validation failed: %w", schema.Name, err)}
	}
	return nil
}

func schemaFor(schema *Schema) (*jsonschema.Schema, error) {
	if sch, ok := compiled.Load(schema.Name); ok {
		return sch.(*jsonschema.Schema), nil
	}

	// The compiler wants a decoded document with json.Number values, so
	// the Go map is round-tripped through its JSON form.
	raw, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	url := "schema://tutorly/" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		return nil, err
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	actual, _ := compiled.LoadOrStore(schema.Name, sch)
	return actual.(*jsonschema.Schema), nil
}

// stripCodeFence unwraps a ```json ... ``` block, which some models emit
// around structured output even when asked not to.
func stripCodeFence(raw json.RawMessage) json.RawMessage {
	b := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(b, []byte("```")) || !bytes.HasSuffix(b, []byte("```")) || len(b) < 6 {
		return raw
	}
	b = b[3 : len(b)-3]
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 && !bytes.ContainsAny(b[:nl], "{[") {
		b = b[nl+1:]
	}
	return bytes.TrimSpace(b)
}
