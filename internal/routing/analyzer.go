package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/logger"
)

// Analyzer turns a query into routing features. Implementations never fail;
// they degrade to a default bundle instead.
type Analyzer interface {
	Analyze(ctx context.Context, query string, uctx UserContext) Features
}

// HeuristicAnalyzer is the keyword-and-length Analyzer. It makes no calls.
type HeuristicAnalyzer struct{}

func (HeuristicAnalyzer) Analyze(_ context.Context, query string, uctx UserContext) Features {
	return Extract(query, uctx)
}

// AnalyzerConfig holds configuration for the LLM analyzer.
type AnalyzerConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultAnalyzerConfig returns sensible defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MaxTokens:   512,
		Temperature: 0.2,
	}
}

// LLMAnalyzer asks the LLM to classify the query.
type LLMAnalyzer struct {
	provider llm.Provider
	cfg      AnalyzerConfig
}

// NewLLMAnalyzer creates an LLM-backed analyzer.
func NewLLMAnalyzer(provider llm.Provider, cfg AnalyzerConfig) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider, cfg: cfg}
}

// queryAnalysis is the raw LLM response.
type queryAnalysis struct {
	Complexity            float64  `json:"complexity"`
	RequiresDeepReasoning bool     `json:"requiresDeepReasoning"`
	QueryType             string   `json:"queryType"`
	SubjectDifficulty     string   `json:"subjectDifficulty"`
	RecommendedPath       string   `json:"recommendedPath"`
	EducationalValue      float64  `json:"educationalValue"`
	LearningObjectives    []string `json:"learningObjectives"`
}

// FallbackFeatures is what the LLM analyzer returns when analysis fails.
func FallbackFeatures() Features {
	return Features{
		Complexity:         defaultComplexity,
		LearningObjectives: []string{"General learning"},
	}
}

// Analyze classifies the query. Any failure is logged and the fallback
// bundle returned so selection can proceed.
func (a *LLMAnalyzer) Analyze(ctx context.Context, query string, uctx UserContext) Features {
	f, err := a.analyze(ctx, query, uctx)
	if err != nil {
		logger.FromContext(ctx).Warn("query analysis failed, using fallback", "err", err)
		return FallbackFeatures()
	}
	return f
}

func (a *LLMAnalyzer) analyze(ctx context.Context, query string, uctx UserContext) (Features, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeQueryAnalysis)

	prompt, err := buildAnalysisMessage(query, uctx)
	if err != nil {
		return Features{}, fmt.Errorf("build analysis prompt: %w", err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages:    llm.UserPrompt(prompt),
		Schema:      QueryAnalysisSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return Features{}, fmt.Errorf("LLM query analysis failed: %w", err)
	}

	var raw queryAnalysis
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return Features{}, fmt.Errorf("parse query analysis: %w", err)
	}

	return Features{
		Complexity:            raw.Complexity,
		IsFactual:             raw.QueryType == "factual",
		RequiresDeepReasoning: raw.RequiresDeepReasoning,
		LearningObjectives:    raw.LearningObjectives,
	}, nil
}

var analysisTemplate = template.Must(template.New("analysis").Parse(`Analyze this learning query for complexity and processing requirements:

Query: "{{.Query}}"
User Level: {{.Level}}
User Subjects: {{.Subjects}}
Recent Topics: {{.RecentTopics}}

Determine:
1. Complexity Level (1-10)
2. Requires Deep Reasoning (yes/no)
3. Factual vs Conceptual (factual/conceptual/mixed)
4. Subject Area Difficulty
5. Recommended Processing Path

Return analysis focusing on educational value and learning outcomes.`))

func buildAnalysisMessage(query string, uctx UserContext) (string, error) {
	uctx = uctx.WithDefaults()
	var buf bytes.Buffer
	err := analysisTemplate.Execute(&buf, map[string]string{
		"Query":        query,
		"Level":        uctx.Level,
		"Subjects":     strings.Join(uctx.Subjects, ", "),
		"RecentTopics": strings.Join(uctx.RecentTopics, ", "),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
