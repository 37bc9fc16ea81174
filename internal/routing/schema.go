package routing

import "github.com/abhisek/tutorly/internal/llm"

// QueryAnalysisSchema defines the JSON schema for LLM query analysis.
var QueryAnalysisSchema = &llm.Schema{
	Name:        "query-analysis",
	Description: "Complexity and processing requirements of a learner's query",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"complexity": map[string]any{
				"type":        "number",
				"minimum":     1,
				"maximum":     10,
				"description": "Complexity level of the query from 1 (trivial recall) to 10 (open research question)",
			},
			"requiresDeepReasoning": map[string]any{
				"type":        "boolean",
				"description": "Whether answering well needs multi-step reasoning or multiple perspectives",
			},
			"queryType": map[string]any{
				"type": "string",
				"enum": []any{"factual", "conceptual", "mixed"},
			},
			"subjectDifficulty": map[string]any{
				"type": "string",
				"enum": []any{"basic", "intermediate", "advanced"},
			},
			"recommendedPath": map[string]any{
				"type": "string",
				"enum": []any{"cache", "lightweight", "deep_reasoning"},
			},
			"educationalValue": map[string]any{
				"type":    "number",
				"minimum": 1,
				"maximum": 10,
			},
			"learningObjectives": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Short learning objectives the answer should serve",
			},
		},
		"required": []any{
			"complexity", "requiresDeepReasoning", "queryType", "subjectDifficulty",
			"recommendedPath", "educationalValue", "learningObjectives",
		},
		"additionalProperties": false,
	},
}
