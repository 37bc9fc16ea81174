package routing

import (
	"strings"
	"unicode/utf8"
)

// UserContext is the learner information that shapes prompts. Empty fields
// are filled by WithDefaults.
type UserContext struct {
	Level         string   `json:"level"`
	Subjects      []string `json:"subjects"`
	RecentTopics  []string `json:"recentTopics"`
	LearningStyle string   `json:"learningStyle"`
}

// WithDefaults returns a copy with empty fields set to their defaults.
func (u UserContext) WithDefaults() UserContext {
	if u.Level == "" {
		u.Level = "beginner"
	}
	if len(u.Subjects) == 0 {
		u.Subjects = []string{"general"}
	}
	if len(u.RecentTopics) == 0 {
		u.RecentTopics = []string{"none"}
	}
	if u.LearningStyle == "" {
		u.LearningStyle = "balanced"
	}
	return u
}

// Features is what the selector looks at.
type Features struct {
	// Complexity is a 1-10 difficulty estimate.
	Complexity            float64
	IsFactual             bool
	RequiresDeepReasoning bool

	// LearningObjectives is only filled by the LLM analyzer.
	LearningObjectives []string
}

const (
	minComplexity     = 1
	maxComplexity     = 10
	defaultComplexity = 5

	// runesPerComplexityPoint scales query length to complexity.
	runesPerComplexityPoint = 50

	// deepComplexity is the complexity above which a query always needs
	// deep reasoning.
	deepComplexity = 7
)

var factualPhrases = []string{
	"what is",
	"what are",
	"define",
	"definition of",
	"who is",
	"who was",
}

var deepReasoningPhrases = []string{
	"explain",
	"analyze",
	"analyse",
	"optimize",
	"evaluate",
	"critique",
	"synthesize",
}

// Extract derives routing features from a query with string heuristics.
// It never fails; blank queries get mid-range defaults.
func Extract(query string, _ UserContext) Features {
	q := strings.TrimSpace(query)
	if q == "" {
		return Features{Complexity: defaultComplexity}
	}

	complexity := float64(utf8.RuneCountInString(q)) / runesPerComplexityPoint
	complexity = min(max(complexity, minComplexity), maxComplexity)

	lower := strings.ToLower(q)
	return Features{
		Complexity:            complexity,
		IsFactual:             containsAny(lower, factualPhrases),
		RequiresDeepReasoning: containsAny(lower, deepReasoningPhrases) || complexity > deepComplexity,
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
