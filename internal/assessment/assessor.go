// Package assessment estimates a learner's competency in a subject from
// their tutoring history.
package assessment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/abhisek/tutorly/internal/llm"
	"github.com/abhisek/tutorly/internal/logger"
	"github.com/abhisek/tutorly/internal/store"
)

const (
	// maxInteractions caps how much history goes into a prompt.
	maxInteractions = 20

	// UnlockThreshold is the mastery score needed to unlock competencies.
	UnlockThreshold = 70

	// maxUnlocks caps competencies unlocked by one assessment.
	maxUnlocks = 2

	defaultResponseQuality = 0.8
)

// Interaction is one past question, as seen by the assessor.
type Interaction struct {
	Query           string
	Level           QueryLevel
	Timestamp       time.Time
	ResponseQuality float64
}

// Input is the evidence an assessment is based on.
type Input struct {
	Subject           string
	Interactions      []Interaction
	TotalInteractions int
	Competencies      []store.Competency
	Progress          []store.ProgressRecord
}

// Assessment is the LLM's judgement of the learner.
type Assessment struct {
	CurrentLevel     string   `json:"currentLevel"`
	MasteryScore     float64  `json:"masteryScore"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	NextCompetencies []string `json:"nextCompetencies"`
	EstimatedTime    string   `json:"estimatedTime"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
}

// Recommendations are study actions derived from an Assessment.
type Recommendations struct {
	Immediate  []string `json:"immediate"`
	ShortTerm  []string `json:"shortTerm"`
	LongTerm   []string `json:"longTerm"`
	StudyPlan  string   `json:"studyPlan"`
	FocusAreas []string `json:"focusAreas"`
}

// Result is the outcome of a full assessment run.
type Result struct {
	Subject         string
	Assessment      *Assessment
	Recommendations *Recommendations
	Unlocked        []string
}

// Config holds configuration for the assessor.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.3,
	}
}

// Assessor runs competency assessments.
type Assessor struct {
	provider     llm.Provider
	messages     *store.Typed[store.ChatMessage]
	competencies *store.Typed[store.Competency]
	progress     *store.Typed[store.ProgressRecord]
	cfg          Config
}

// NewAssessor creates an Assessor reading from and writing to entities.
func NewAssessor(provider llm.Provider, entities store.EntityRepo, cfg Config) *Assessor {
	return &Assessor{
		provider:     provider,
		messages:     store.ChatMessageRepo(entities),
		competencies: store.CompetencyRepo(entities),
		progress:     store.ProgressRepo(entities),
		cfg:          cfg,
	}
}

// Run gathers evidence for subject, assesses it, asks for recommendations
// and records the outcome.
func (a *Assessor) Run(ctx context.Context, subject, learner string) (*Result, error) {
	in, err := a.Gather(ctx, subject)
	if err != nil {
		return nil, err
	}
	assessed, err := a.Assess(ctx, in)
	if err != nil {
		return nil, err
	}
	recs, err := a.Recommend(ctx, assessed)
	if err != nil {
		return nil, err
	}
	unlocked, err := a.Record(ctx, subject, learner, assessed, recs)
	if err != nil {
		return nil, err
	}
	return &Result{Subject: subject, Assessment: assessed, Recommendations: recs, Unlocked: unlocked}, nil
}

// Gather loads the competencies, progress and recent questions for subject.
func (a *Assessor) Gather(ctx context.Context, subject string) (Input, error) {
	in := Input{Subject: subject}

	comps, err := a.competencies.Filter(ctx, map[string]any{"learning_path": subject}, store.ListOpts{Asc: true})
	if err != nil {
		return in, fmt.Errorf("load competencies: %w", err)
	}
	for _, c := range comps {
		in.Competencies = append(in.Competencies, c.Value)
	}

	progress, err := a.progress.List(ctx, store.ListOpts{})
	if err != nil {
		return in, fmt.Errorf("load progress: %w", err)
	}
	lowerSubject := strings.ToLower(subject)
	for _, p := range progress {
		if strings.Contains(strings.ToLower(p.Value.CompetencyName), lowerSubject) {
			in.Progress = append(in.Progress, p.Value)
		}
	}

	msgs, err := a.messages.Filter(ctx, map[string]any{"role": "user"}, store.ListOpts{})
	if err != nil {
		return in, fmt.Errorf("load interactions: %w", err)
	}
	in.TotalInteractions = len(msgs)

	// Quality is the confidence of the answer sharing the question's trace.
	answers, err := a.messages.Filter(ctx, map[string]any{"role": "assistant"}, store.ListOpts{})
	if err != nil {
		return in, fmt.Errorf("load answers: %w", err)
	}
	confidence := make(map[string]float64, len(answers))
	for _, ans := range answers {
		if id := ans.Value.TraceID; id != "" {
			confidence[id] = ans.Value.ConfidenceScore
		}
	}

	recent := msgs[:min(len(msgs), maxInteractions)]
	for i := len(recent) - 1; i >= 0; i-- {
		m := recent[i]
		quality := confidence[m.Value.TraceID]
		if m.Value.TraceID == "" || quality == 0 {
			quality = defaultResponseQuality
		}
		in.Interactions = append(in.Interactions, Interaction{
			Query:           m.Value.Content,
			Level:           EstimateQueryLevel(m.Value.Content),
			Timestamp:       m.CreatedAt,
			ResponseQuality: quality,
		})
	}

	return in, nil
}

// Assess asks the LLM for a competency assessment. Errors propagate.
func (a *Assessor) Assess(ctx context.Context, in Input) (*Assessment, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeAssessment)

	prompt, err := buildAssessmentMessage(in)
	if err != nil {
		return nil, fmt.Errorf("build assessment prompt: %w", err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages:    llm.UserPrompt(prompt),
		Schema:      CompetencySchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM competency assessment failed: %w", err)
	}

	var out Assessment
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse competency assessment: %w", err)
	}
	return &out, nil
}

// Recommend asks the LLM for study recommendations. Errors propagate.
func (a *Assessor) Recommend(ctx context.Context, as *Assessment) (*Recommendations, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeRecommendations)

	prompt, err := render(recommendationTemplate, as)
	if err != nil {
		return nil, fmt.Errorf("build recommendation prompt: %w", err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages:    llm.UserPrompt(prompt),
		Schema:      RecommendationSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM recommendations failed: %w", err)
	}

	var out Recommendations
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse recommendations: %w", err)
	}
	return &out, nil
}

// Record unlocks up to two of the suggested competencies when mastery is at
// least UnlockThreshold, and appends a progress record. It returns the
// names of the unlocked competencies.
func (a *Assessor) Record(ctx context.Context, subject, learner string, as *Assessment, recs *Recommendations) ([]string, error) {
	now := time.Now().UTC()
	var unlocked []string

	if as.MasteryScore >= UnlockThreshold && len(as.NextCompetencies) > 0 {
		comps, err := a.competencies.Filter(ctx, map[string]any{"learning_path": subject}, store.ListOpts{Asc: true})
		if err != nil {
			return nil, fmt.Errorf("load competencies: %w", err)
		}
		for _, name := range as.NextCompetencies[:min(len(as.NextCompetencies), maxUnlocks)] {
			for _, c := range comps {
				if c.Value.Unlocked || !strings.EqualFold(c.Value.Name, name) {
					continue
				}
				if _, err := a.competencies.Update(ctx, c.ID, map[string]any{
					"is_unlocked":   true,
					"unlocked_date": now,
				}); err != nil {
					return unlocked, fmt.Errorf("unlock competency %q: %w", c.Value.Name, err)
				}
				unlocked = append(unlocked, c.Value.Name)
				break
			}
		}
	}

	name := subject
	if name == "" {
		name = "General Assessment"
	}
	rec := store.ProgressRecord{
		CompetencyID:    fmt.Sprintf("assessment_%d", now.UnixMilli()),
		CompetencyName:  name,
		PercentComplete: as.MasteryScore,
		DifficultyLevel: as.CurrentLevel,
		LastActivity:    now,
	}
	if recs != nil {
		for _, g := range recs.Immediate {
			rec.GoalsToday = append(rec.GoalsToday, store.Goal{Goal: g})
		}
	}
	if _, err := a.progress.Create(ctx, learner, rec); err != nil {
		return unlocked, fmt.Errorf("save progress: %w", err)
	}

	logger.FromContext(ctx).Info("recorded assessment",
		"subject", subject,
		"level", as.CurrentLevel,
		"mastery", as.MasteryScore,
		"unlocked", len(unlocked),
	)
	return unlocked, nil
}

var assessmentTemplate = template.Must(template.New("assessment").Parse(`Analyze this student's competency in {{.Subject}} based on their learning data:

Current Progress:
{{.Progress}}

Recent Interactions:
{{range .Interactions}}- {{.Query}} ({{.Level}} level)
{{end}}
Available Competencies:
{{range .Competencies}}- {{.Name}} ({{.Level}})
{{end}}
Provide a comprehensive competency assessment including:
1. Current skill level (beginner/intermediate/advanced)
2. Mastery score (0-100)
3. Key strengths demonstrated
4. Areas needing improvement
5. Recommended next competencies to unlock
6. Estimated time to reach next level

Base your analysis on learning progression patterns and educational best practices.`))

var recommendationTemplate = template.Must(template.New("recommendation").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`Based on this competency analysis, generate specific learning recommendations:

Current Level: {{.CurrentLevel}}
Mastery Score: {{.MasteryScore}}%
Strengths: {{join .Strengths ", "}}
Weaknesses: {{join .Weaknesses ", "}}

Generate 3-5 specific, actionable recommendations that:
1. Address identified weaknesses
2. Build on existing strengths
3. Provide clear next steps
4. Include specific study activities
5. Set realistic timelines

Format as concrete learning actions the student can take.`))

func buildAssessmentMessage(in Input) (string, error) {
	progress := in.Progress
	if progress == nil {
		progress = []store.ProgressRecord{}
	}
	progressJSON, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode progress: %w", err)
	}

	return render(assessmentTemplate, map[string]any{
		"Subject":      in.Subject,
		"Progress":     string(progressJSON),
		"Interactions": in.Interactions,
		"Competencies": in.Competencies,
	})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
