package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an entity or event does not exist.
var ErrNotFound = errors.New("not found")

// Collection names a group of entities. The store does not constrain the
// set; these are the ones tutorly itself reads and writes.
type Collection string

const (
	ChatMessages      Collection = "chat_messages"
	TutorProgress     Collection = "tutor_progress"
	Competencies      Collection = "competencies"
	ResponseTemplates Collection = "response_templates"
	Achievements      Collection = "achievements"
)

// Entity is a JSON document in a named collection.
type Entity struct {
	ID         string
	Collection Collection
	Data       map[string]any
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ListOpts configures entity listing.
type ListOpts struct {
	Limit int  // max results (0 = unlimited)
	Asc   bool // oldest first; default is newest first
}

// EntityRepo is a generic document store over named collections.
type EntityRepo interface {
	// Create stores data under a fresh id and returns the saved entity.
	Create(ctx context.Context, c Collection, createdBy string, data map[string]any) (*Entity, error)

	// Get returns the entity or ErrNotFound.
	Get(ctx context.Context, c Collection, id string) (*Entity, error)

	// List returns the collection ordered by creation time.
	List(ctx context.Context, c Collection, opts ListOpts) ([]Entity, error)

	// Filter returns entities whose top-level fields equal every value in
	// match. Values compare as JSON scalars.
	Filter(ctx context.Context, c Collection, match map[string]any, opts ListOpts) ([]Entity, error)

	// Update shallow-merges patch into the stored document. A nil value
	// removes the field. Returns ErrNotFound if id is unknown.
	Update(ctx context.Context, c Collection, id string, patch map[string]any) (*Entity, error)

	// Delete removes the entity. Returns ErrNotFound if id is unknown.
	Delete(ctx context.Context, c Collection, id string) error
}

// RPGStats is the persisted progression state of a learner.
type RPGStats struct {
	Level          int
	TotalXP        int
	CurrentLevelXP int
	XPToNextLevel  int
}

// User is the local learner profile.
type User struct {
	ID            string
	Email         string
	FullName      string
	Level         string
	LearningStyle string
	Subjects      []string
	RPGEnabled    bool
	Stats         RPGStats
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserPatch holds optional updates; nil fields are left unchanged.
type UserPatch struct {
	FullName      *string
	Level         *string
	LearningStyle *string
	Subjects      []string // nil = unchanged, empty = clear
	RPGEnabled    *bool
	Stats         *RPGStats
}

// UserRepo gives access to the current learner.
type UserRepo interface {
	// CurrentUser returns the configured learner, creating it on first use.
	CurrentUser(ctx context.Context) (*User, error)

	// UpdateCurrentUser applies patch and returns the updated user.
	UpdateCurrentUser(ctx context.Context, patch UserPatch) (*User, error)

	// ApplyStats replaces the learner's stats with fn(current) in one
	// transaction and returns the updated user. fn is called exactly once.
	ApplyStats(ctx context.Context, fn func(RPGStats) RPGStats) (*User, error)
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	WebContext   bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates token usage for one group key (purpose or model).
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event, or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)

	// LLMUsageByModel aggregates usage per model ID.
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
