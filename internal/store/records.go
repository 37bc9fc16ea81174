package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ChatMessage is one turn of a tutoring conversation.
type ChatMessage struct {
	Role               string     `json:"role"` // "user" or "assistant"
	Content            string     `json:"content"`
	TraceID            string     `json:"trace_id,omitempty"`
	ModelTier          string     `json:"model_tier,omitempty"`
	ConfidenceScore    float64    `json:"confidence_score,omitempty"`
	LatencyMs          int64      `json:"latency_ms,omitempty"`
	IsCached           bool       `json:"is_cached,omitempty"`
	XPAwarded          int        `json:"xp_awarded,omitempty"`
	LeadingPhrase      string     `json:"leading_phrase,omitempty"`
	Citations          []Citation `json:"citations,omitempty"`
	LearningObjectives []string   `json:"learning_objectives,omitempty"`
}

// Citation is a stored answer reference.
type Citation struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// ResponseTemplate is canned content served for queries containing any of
// its keywords.
type ResponseTemplate struct {
	Name     string   `json:"name"`
	Keywords []string `json:"prompt_keywords"`
	Content  string   `json:"content"`
	Active   bool     `json:"is_active"`
	Category string   `json:"category,omitempty"`
}

// Goal is one item of a learner's daily plan.
type Goal struct {
	Goal      string `json:"goal"`
	Completed bool   `json:"completed"`
}

// ProgressRecord tracks a learner's standing on one competency.
type ProgressRecord struct {
	CompetencyID    string    `json:"competency_id"`
	CompetencyName  string    `json:"competency_name"`
	PercentComplete float64   `json:"percent_complete"`
	DifficultyLevel string    `json:"difficulty_level"`
	LastActivity    time.Time `json:"last_activity,omitzero"`
	GoalsToday      []Goal    `json:"goals_today,omitempty"`
}

// Competency is a skill on a learning path that a learner can unlock.
type Competency struct {
	Name         string    `json:"name"`
	LearningPath string    `json:"learning_path"`
	Level        string    `json:"level,omitempty"`
	Description  string    `json:"description,omitempty"`
	Unlocked     bool      `json:"is_unlocked"`
	UnlockedDate time.Time `json:"unlocked_date,omitzero"`
}

// UserAchievement records a milestone the learner has unlocked.
type UserAchievement struct {
	Code       string    `json:"achievement_code"`
	Name       string    `json:"name"`
	Tier       string    `json:"tier,omitempty"`
	XPReward   int       `json:"xp_reward"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Record pairs a decoded value with its entity metadata.
type Record[T any] struct {
	ID        string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	Value     T
}

// Typed is a view of one collection that encodes values of T as documents.
type Typed[T any] struct {
	repo       EntityRepo
	collection Collection
}

// NewTyped returns a typed view of collection c.
func NewTyped[T any](repo EntityRepo, c Collection) *Typed[T] {
	return &Typed[T]{repo: repo, collection: c}
}

// ChatMessageRepo returns the typed chat message collection.
func ChatMessageRepo(repo EntityRepo) *Typed[ChatMessage] {
	return NewTyped[ChatMessage](repo, ChatMessages)
}

// TemplateRepo returns the typed response template collection.
func TemplateRepo(repo EntityRepo) *Typed[ResponseTemplate] {
	return NewTyped[ResponseTemplate](repo, ResponseTemplates)
}

// ProgressRepo returns the typed tutor progress collection.
func ProgressRepo(repo EntityRepo) *Typed[ProgressRecord] {
	return NewTyped[ProgressRecord](repo, TutorProgress)
}

// AchievementRepo returns the typed unlocked-achievement collection.
func AchievementRepo(repo EntityRepo) *Typed[UserAchievement] {
	return NewTyped[UserAchievement](repo, Achievements)
}

// CompetencyRepo returns the typed competency collection.
func CompetencyRepo(repo EntityRepo) *Typed[Competency] {
	return NewTyped[Competency](repo, Competencies)
}

func (t *Typed[T]) Create(ctx context.Context, createdBy string, v T) (*Record[T], error) {
	data, err := encodeDoc(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t.collection, err)
	}
	e, err := t.repo.Create(ctx, t.collection, createdBy, data)
	if err != nil {
		return nil, err
	}
	return &Record[T]{ID: e.ID, CreatedBy: e.CreatedBy, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt, Value: v}, nil
}

func (t *Typed[T]) Get(ctx context.Context, id string) (*Record[T], error) {
	e, err := t.repo.Get(ctx, t.collection, id)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T](e)
}

func (t *Typed[T]) List(ctx context.Context, opts ListOpts) ([]Record[T], error) {
	return t.Filter(ctx, nil, opts)
}

func (t *Typed[T]) Filter(ctx context.Context, match map[string]any, opts ListOpts) ([]Record[T], error) {
	entities, err := t.repo.Filter(ctx, t.collection, match, opts)
	if err != nil {
		return nil, err
	}
	out := make([]Record[T], 0, len(entities))
	for i := range entities {
		rec, err := decodeRecord[T](&entities[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Update shallow-merges patch (keyed by JSON field name) into the record.
func (t *Typed[T]) Update(ctx context.Context, id string, patch map[string]any) (*Record[T], error) {
	e, err := t.repo.Update(ctx, t.collection, id, patch)
	if err != nil {
		return nil, err
	}
	return decodeRecord[T](e)
}

func (t *Typed[T]) Delete(ctx context.Context, id string) error {
	return t.repo.Delete(ctx, t.collection, id)
}

func encodeDoc(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeRecord[T any](e *Entity) (*Record[T], error) {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", e.Collection, e.ID, err)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", e.Collection, e.ID, err)
	}
	return &Record[T]{ID: e.ID, CreatedBy: e.CreatedBy, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt, Value: v}, nil
}
