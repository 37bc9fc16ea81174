// Package synth produces the learner-facing answer for a routed query.
package synth

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/routing"
)

// ErrUnsupportedTier is returned for tiers this package does not produce.
var ErrUnsupportedTier = errors.New("unsupported tier")

// Citation is a reference attached to an answer.
type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Response is a synthesized answer.
type Response struct {
	Tier               routing.Tier
	Content            string
	Confidence         float64
	Citations          []Citation
	LearningObjectives []string

	// Usage is zero for the cache tier.
	Usage llm.Usage
}

// Config holds generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// Synthesizer answers queries for the cache, lightweight and deep tiers.
type Synthesizer struct {
	provider llm.Provider
	deep     llm.Provider
	pacer    Pacer
	cfg      Config
}

// New creates a Synthesizer. A nil pacer means NoPacer.
func New(provider llm.Provider, pacer Pacer, cfg Config) *Synthesizer {
	if pacer == nil {
		pacer = NoPacer{}
	}
	return &Synthesizer{provider: provider, deep: provider, pacer: pacer, cfg: cfg}
}

// WithDeepProvider routes deep-tier generation to p, typically a larger
// model. A nil p is ignored.
func (s *Synthesizer) WithDeepProvider(p llm.Provider) *Synthesizer {
	if p != nil {
		s.deep = p
	}
	return s
}

var (
	lightweightCitations = []Citation{
		{URL: "https://example.com/educational-resource", Title: "Educational Reference", Snippet: "Supporting learning material..."},
	}
	deepCitations = []Citation{
		{URL: "https://example.com/academic-source", Title: "Peer-Reviewed Research", Snippet: "Academic validation..."},
		{URL: "https://example.com/expert-analysis", Title: "Expert Analysis", Snippet: "Professional insights..."},
	}
)

// Synthesize produces the answer for query on tier. Collaborator errors
// are returned wrapped; there is no retry or fallback at this level.
func (s *Synthesizer) Synthesize(ctx context.Context, tier routing.Tier, query string, uctx routing.UserContext, opts routing.Options) (*Response, error) {
	switch tier {
	case routing.TierCache, routing.TierLightweight, routing.TierDeepReasoning:
	default:
		return nil, fmt.Errorf("synthesize %s: %w", tier, ErrUnsupportedTier)
	}

	if !opts.PrioritizeSpeed {
		if err := s.pacer.Pace(ctx, tier.Profile().EstimatedLatency); err != nil {
			return nil, fmt.Errorf("pace %s: %w", tier, err)
		}
	}

	switch tier {
	case routing.TierCache:
		return &Response{
			Tier:               tier,
			Content:            cachedContent(query),
			Confidence:         0.95,
			Citations:          []Citation{},
			LearningObjectives: []string{"Quick factual recall", "Foundation building"},
		}, nil

	case routing.TierLightweight:
		prompt, err := buildLightweightPrompt(query, uctx)
		if err != nil {
			return nil, fmt.Errorf("build lightweight prompt: %w", err)
		}
		text, usage, err := s.generate(llm.WithPurpose(ctx, llm.PurposeLightweight), s.provider, llm.Request{
			System:   lightweightSystemPrompt,
			Messages: llm.UserPrompt(prompt),
		}, opts)
		if err != nil {
			return nil, err
		}
		return &Response{
			Tier:               tier,
			Content:            text,
			Confidence:         0.87,
			Citations:          clone(lightweightCitations),
			LearningObjectives: []string{"Concept understanding", "Practical application"},
			Usage:              usage,
		}, nil

	default: // routing.TierDeepReasoning
		prompt, err := buildDeepPrompt(query, uctx)
		if err != nil {
			return nil, fmt.Errorf("build deep prompt: %w", err)
		}
		text, usage, err := s.generate(llm.WithPurpose(ctx, llm.PurposeDeep), s.deep, llm.Request{
			System:     deepSystemPrompt,
			Messages:   llm.UserPrompt(prompt),
			WebContext: true,
		}, opts)
		if err != nil {
			return nil, err
		}
		return &Response{
			Tier:               tier,
			Content:            text,
			Confidence:         0.96,
			Citations:          clone(deepCitations),
			LearningObjectives: []string{"Deep conceptual mastery", "Critical thinking", "Synthesis and analysis", "Practical application"},
			Usage:              usage,
		}, nil
	}
}

func (s *Synthesizer) generate(ctx context.Context, p llm.Provider, req llm.Request, opts routing.Options) (string, llm.Usage, error) {
	req.MaxTokens = s.cfg.MaxTokens
	if opts.PrioritizeQuality {
		req.MaxTokens *= 2
	}
	req.Temperature = s.cfg.Temperature

	resp, err := p.Generate(ctx, req)
	if err != nil {
		return "", llm.Usage{}, fmt.Errorf("generate %s response: %w", llm.PurposeFrom(ctx), err)
	}

	text := resp.Text()
	if text == "" {
		return "", resp.Usage, &llm.ErrInvalidResponse{
			Content: resp.Content,
			Err:     errors.New("empty response"),
		}
	}

	logger.FromContext(ctx).Debug("synthesized response",
		"purpose", llm.PurposeFrom(ctx),
		"model", resp.Model,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return text, resp.Usage, nil
}

func clone(cs []Citation) []Citation {
	return append([]Citation(nil), cs...)
}
