package assessment

import "github.com/abhisek/tutorly/internal/llm"

func stringArray(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

// CompetencySchema defines the JSON schema for competency assessments.
var CompetencySchema = &llm.Schema{
	Name:        "competency-assessment",
	Description: "Assessment of a learner's competency in one subject",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"currentLevel": map[string]any{
				"type": "string",
				"enum": []any{"beginner", "intermediate", "advanced", "expert"},
			},
			"masteryScore": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 100,
			},
			"strengths":        stringArray("Key strengths demonstrated"),
			"weaknesses":       stringArray("Areas needing improvement"),
			"nextCompetencies": stringArray("Competency names to unlock next"),
			"estimatedTime": map[string]any{
				"type":        "string",
				"description": "Estimated time to reach the next level, e.g. \"2 weeks\"",
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"reasoning": map[string]any{
				"type": "string",
			},
		},
		"required": []any{
			"currentLevel", "masteryScore", "strengths", "weaknesses",
			"nextCompetencies", "estimatedTime", "confidence", "reasoning",
		},
		"additionalProperties": false,
	},
}

// RecommendationSchema defines the JSON schema for study recommendations.
var RecommendationSchema = &llm.Schema{
	Name:        "learning-recommendations",
	Description: "Actionable study recommendations following an assessment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"immediate":  stringArray("Actions for today"),
			"shortTerm":  stringArray("Actions for the coming weeks"),
			"longTerm":   stringArray("Actions for the coming months"),
			"studyPlan":  map[string]any{"type": "string"},
			"focusAreas": stringArray("Topics to focus on"),
		},
		"required":             []any{"immediate", "shortTerm", "longTerm", "studyPlan", "focusAreas"},
		"additionalProperties": false,
	},
}
