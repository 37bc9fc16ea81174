package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/store"
)

func TestEstimateQueryLevel(t *testing.T) {
	tests := []struct {
		query string
		want  QueryLevel
	}{
		{"What is a derivative?", QueryBasic},
		{"Define osmosis", QueryBasic},
		{"Explain simply how magnets work", QueryBasic},
		{"How to implement a linked list", QueryIntermediate},
		{"Compare mitosis and meiosis", QueryIntermediate},
		{"Optimize this SQL query", QueryAdvanced},
		{"Critique my essay", QueryAdvanced},
		// basic keywords win over advanced ones.
		{"What is the best way to design a cache?", QueryBasic},
		{"Why is the sky blue?", QueryBasic},
		{strings.Repeat("tell me more about rivers ", 5), QueryIntermediate},
	}

	for _, tt := range tests {
		if got := EstimateQueryLevel(tt.query); got != tt.want {
			t.Errorf("EstimateQueryLevel(%.30q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestOverallLevel(t *testing.T) {
	tests := []struct {
		levels []string
		want   string
	}{
		{nil, LevelBeginner},
		{[]string{"beginner", "intermediate"}, LevelBeginner},             // 1.5
		{[]string{"intermediate"}, LevelIntermediate},                     // 2
		{[]string{"intermediate", "advanced"}, LevelIntermediate},         // 2.5
		{[]string{"advanced", "advanced", "expert"}, LevelAdvanced},       // 3.33
		{[]string{"advanced", "expert"}, LevelAdvanced},                   // 3.5
		{[]string{"expert", "expert", "advanced", "expert"}, LevelExpert}, // 3.75
		{[]string{"unknown", "ADVANCED"}, LevelIntermediate},              // 2
	}

	for _, tt := range tests {
		if got := OverallLevel(tt.levels); got != tt.want {
			t.Errorf("OverallLevel(%v) = %q, want %q", tt.levels, got, tt.want)
		}
	}
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func sampleAssessment(mastery float64, next ...string) Assessment {
	if next == nil {
		next = []string{}
	}
	return Assessment{
		CurrentLevel:     "intermediate",
		MasteryScore:     mastery,
		Strengths:        []string{"algebra"},
		Weaknesses:       []string{"proofs"},
		NextCompetencies: next,
		EstimatedTime:    "2 weeks",
		Confidence:       0.8,
		Reasoning:        "Consistent intermediate questions",
	}
}

func sampleRecommendations() Recommendations {
	return Recommendations{
		Immediate:  []string{"Practice two induction proofs"},
		ShortTerm:  []string{"Finish the proofs unit"},
		LongTerm:   []string{"Take a discrete math course"},
		StudyPlan:  "30 minutes a day",
		FocusAreas: []string{"proofs"},
	}
}

func TestGather(t *testing.T) {
	st := openStore(t)
	ctx := t.Context()
	entities := st.EntityRepo()

	comps := store.CompetencyRepo(entities)
	_, err := comps.Create(ctx, "", store.Competency{Name: "Limits", LearningPath: "math", Level: "beginner"})
	require.NoError(t, err)
	_, err = comps.Create(ctx, "", store.Competency{Name: "Cells", LearningPath: "biology", Level: "beginner"})
	require.NoError(t, err)

	progress := store.ProgressRepo(entities)
	_, err = progress.Create(ctx, "", store.ProgressRecord{CompetencyName: "Math fundamentals", PercentComplete: 40})
	require.NoError(t, err)
	_, err = progress.Create(ctx, "", store.ProgressRecord{CompetencyName: "Poetry", PercentComplete: 90})
	require.NoError(t, err)

	msgs := store.ChatMessageRepo(entities)
	turns := []struct {
		trace, query string
		confidence   float64
	}{
		{"trace-1", "What is a limit?", 0.95},
		{"trace-2", "Compare limits and derivatives", 0},
	}
	for _, turn := range turns {
		_, err := msgs.Create(ctx, "", store.ChatMessage{Role: "user", Content: turn.query, TraceID: turn.trace})
		require.NoError(t, err)
		_, err = msgs.Create(ctx, "", store.ChatMessage{Role: "assistant", Content: "answer", TraceID: turn.trace, ConfidenceScore: turn.confidence})
		require.NoError(t, err)
	}

	a := NewAssessor(llm.NewMockProvider(), entities, DefaultConfig())
	in, err := a.Gather(ctx, "math")
	require.NoError(t, err)

	require.Len(t, in.Competencies, 1)
	assert.Equal(t, "Limits", in.Competencies[0].Name)
	require.Len(t, in.Progress, 1)
	assert.Equal(t, "Math fundamentals", in.Progress[0].CompetencyName)
	assert.Equal(t, 2, in.TotalInteractions)
	require.Len(t, in.Interactions, 2)
	assert.Equal(t, "What is a limit?", in.Interactions[0].Query, "oldest first")
	assert.Equal(t, QueryBasic, in.Interactions[0].Level)
	assert.Equal(t, QueryIntermediate, in.Interactions[1].Level)
	assert.Equal(t, 0.95, in.Interactions[0].ResponseQuality, "taken from the matching answer")
	assert.Equal(t, 0.8, in.Interactions[1].ResponseQuality, "default without a scored answer")
}

func TestAssess(t *testing.T) {
	want := sampleAssessment(55, "Derivatives")
	mock := llm.NewMockProvider(llm.MockResponse{Content: mustJSON(t, want)})
	a := NewAssessor(mock, openStore(t).EntityRepo(), DefaultConfig())

	got, err := a.Assess(context.Background(), Input{
		Subject:      "math",
		Interactions: []Interaction{{Query: "What is a limit?", Level: QueryBasic}},
		Competencies: []store.Competency{{Name: "Limits", Level: "beginner"}},
	})
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	req, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, CompetencySchema, req.Schema)
	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, "competency in math")
	assert.Contains(t, prompt, "- What is a limit? (basic level)")
	assert.Contains(t, prompt, "- Limits (beginner)")
}

func TestAssess_ErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		resp llm.MockResponse
	}{
		{"provider", llm.MockError(&llm.ErrRateLimit{Err: errors.New("429")})},
		{"schema", llm.MockResponse{Content: json.RawMessage(`{"currentLevel":"guru"}`)}},
	}
	for _, tt := range tests {
		a := NewAssessor(llm.NewMockProvider(tt.resp), openStore(t).EntityRepo(), DefaultConfig())
		_, err := a.Assess(context.Background(), Input{Subject: "math"})
		assert.Error(t, err, tt.name)
	}
}

func TestRun_UnlocksAboveThreshold(t *testing.T) {
	st := openStore(t)
	ctx := t.Context()
	comps := store.CompetencyRepo(st.EntityRepo())
	for _, name := range []string{"Limits", "Derivatives", "Integrals", "Series"} {
		_, err := comps.Create(ctx, "", store.Competency{Name: name, LearningPath: "math"})
		require.NoError(t, err)
	}

	mock := llm.NewMockProvider(
		llm.MockResponse{Content: mustJSON(t, sampleAssessment(75, "derivatives", "Integrals", "Series"))},
		llm.MockResponse{Content: mustJSON(t, sampleRecommendations())},
	)
	a := NewAssessor(mock, st.EntityRepo(), DefaultConfig())

	res, err := a.Run(ctx, "math", "learner@tutorly.local")
	require.NoError(t, err)
	assert.Equal(t, []string{"Derivatives", "Integrals"}, res.Unlocked, "at most two, matched case-insensitively")
	assert.Equal(t, "30 minutes a day", res.Recommendations.StudyPlan)

	unlocked, err := comps.Filter(ctx, map[string]any{"is_unlocked": true}, store.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, unlocked, 2)

	progress, err := store.ProgressRepo(st.EntityRepo()).List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, progress, 1)
	assert.Equal(t, "math", progress[0].Value.CompetencyName)
	assert.Equal(t, 75.0, progress[0].Value.PercentComplete)
	assert.Equal(t, "intermediate", progress[0].Value.DifficultyLevel)
	require.Len(t, progress[0].Value.GoalsToday, 1)
	assert.False(t, progress[0].Value.GoalsToday[0].Completed)
	assert.Equal(t, "learner@tutorly.local", progress[0].CreatedBy)
}

func TestRun_BelowThresholdUnlocksNothing(t *testing.T) {
	st := openStore(t)
	ctx := t.Context()
	_, err := store.CompetencyRepo(st.EntityRepo()).Create(ctx, "", store.Competency{Name: "Derivatives", LearningPath: "math"})
	require.NoError(t, err)

	mock := llm.NewMockProvider(
		llm.MockResponse{Content: mustJSON(t, sampleAssessment(69.9, "Derivatives"))},
		llm.MockResponse{Content: mustJSON(t, sampleRecommendations())},
	)
	res, err := NewAssessor(mock, st.EntityRepo(), DefaultConfig()).Run(ctx, "math", "")
	require.NoError(t, err)
	assert.Empty(t, res.Unlocked)
}
