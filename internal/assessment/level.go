package assessment

import (
	"strings"
	"unicode/utf8"
)

// QueryLevel is the apparent sophistication of a single question.
type QueryLevel string

const (
	QueryBasic        QueryLevel = "basic"
	QueryIntermediate QueryLevel = "intermediate"
	QueryAdvanced     QueryLevel = "advanced"
)

// Checked in order; the first level with a matching keyword wins.
var queryLevelKeywords = []struct {
	level    QueryLevel
	keywords []string
}{
	{QueryBasic, []string{"what is", "define", "explain simply", "basic"}},
	{QueryIntermediate, []string{"how to", "compare", "analyze", "implement"}},
	{QueryAdvanced, []string{"optimize", "design", "evaluate", "synthesize", "critique"}},
}

const longQueryRunes = 100

// EstimateQueryLevel classifies a query by keywords, falling back to its
// length.
func EstimateQueryLevel(query string) QueryLevel {
	lower := strings.ToLower(query)
	for _, l := range queryLevelKeywords {
		for _, kw := range l.keywords {
			if strings.Contains(lower, kw) {
				return l.level
			}
		}
	}
	if utf8.RuneCountInString(query) > longQueryRunes {
		return QueryIntermediate
	}
	return QueryBasic
}

// Skill levels, lowest first.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

var levelScores = map[string]float64{
	LevelBeginner:     1,
	LevelIntermediate: 2,
	LevelAdvanced:     3,
	LevelExpert:       4,
}

// OverallLevel averages skill levels. Unknown levels count as beginner and
// an empty list is beginner.
func OverallLevel(levels []string) string {
	if len(levels) == 0 {
		return LevelBeginner
	}

	var sum float64
	for _, l := range levels {
		if s, ok := levelScores[strings.ToLower(l)]; ok {
			sum += s
		} else {
			sum += levelScores[LevelBeginner]
		}
	}
	avg := sum / float64(len(levels))

	switch {
	case avg <= 1.5:
		return LevelBeginner
	case avg <= 2.5:
		return LevelIntermediate
	case avg <= 3.5:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}
