package routing

import (
	"strings"
	"testing"
)

// queryOfLen returns a neutral query of exactly n runes with prefix.
func queryOfLen(prefix string, n int) string {
	return prefix + strings.Repeat("x", n-len([]rune(prefix)))
}

func TestExtract_Complexity(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  float64
	}{
		{"short clamps to 1", "hi", 1},
		{"50 runes", queryOfLen("", 50), 1},
		{"150 runes", queryOfLen("", 150), 3},
		{"300 runes", queryOfLen("", 300), 6},
		{"375 runes", queryOfLen("", 375), 7.5},
		{"long clamps to 10", queryOfLen("", 900), 10},
		{"whitespace trimmed", "   " + queryOfLen("", 100) + "\n\t", 2},
		{"counts runes not bytes", strings.Repeat("é", 150), 3},
	}

	for _, tt := range tests {
		got := Extract(tt.query, UserContext{}).Complexity
		if got != tt.want {
			t.Errorf("%s: complexity = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExtract_Empty(t *testing.T) {
	for _, q := range []string{"", "   ", "\n\t "} {
		got := Extract(q, UserContext{})
		if got.Complexity != 5 || got.IsFactual || got.RequiresDeepReasoning {
			t.Errorf("Extract(%q) = %+v, want mid-range default", q, got)
		}
	}
}

func TestExtract_Flags(t *testing.T) {
	tests := []struct {
		query   string
		factual bool
		deep    bool
	}{
		{"What is photosynthesis?", true, false},
		{"what are prime numbers", true, false},
		{"Define entropy", true, false},
		{"Give me the definition of a vector", true, false},
		{"Who was Ada Lovelace?", true, false},
		{"Who is the author of Hamlet", true, false},
		{"How do plants grow?", false, false},
		{"Explain recursion", false, true},
		{"Please ANALYZE this poem", false, true},
		{"analyse the data", false, true},
		{"optimize my loop", false, true},
		{"evaluate the argument", false, true},
		{"critique my essay", false, true},
		{"synthesize these sources", false, true},
		{"What is entropy? Explain it.", true, true},
		{queryOfLen("", 351), false, true}, // complexity > 7
		{queryOfLen("", 350), false, false},
	}

	for _, tt := range tests {
		f := Extract(tt.query, UserContext{})
		if f.IsFactual != tt.factual {
			t.Errorf("Extract(%.30q).IsFactual = %v, want %v", tt.query, f.IsFactual, tt.factual)
		}
		if f.RequiresDeepReasoning != tt.deep {
			t.Errorf("Extract(%.30q).RequiresDeepReasoning = %v, want %v", tt.query, f.RequiresDeepReasoning, tt.deep)
		}
	}
}

func TestUserContext_WithDefaults(t *testing.T) {
	got := UserContext{}.WithDefaults()
	if got.Level != "beginner" || got.LearningStyle != "balanced" {
		t.Errorf("unexpected defaults: %+v", got)
	}
	if len(got.Subjects) != 1 || got.Subjects[0] != "general" {
		t.Errorf("Subjects = %v, want [general]", got.Subjects)
	}
	if len(got.RecentTopics) != 1 || got.RecentTopics[0] != "none" {
		t.Errorf("RecentTopics = %v, want [none]", got.RecentTopics)
	}

	set := UserContext{Level: "advanced", Subjects: []string{"math"}}.WithDefaults()
	if set.Level != "advanced" || set.Subjects[0] != "math" {
		t.Errorf("set fields overwritten: %+v", set)
	}
}
