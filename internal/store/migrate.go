package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table definitions in the shape ent's migrate package expects. They are
// declared by hand because the store talks to SQLite through ent's SQL
// builders rather than a generated client.
var (
	// entitiesColumns holds every named collection (chat messages, study
	// plans, templates...) as JSON documents.
	entitiesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "collection", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "created_by", Type: field.TypeString, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	entitiesTable = &schema.Table{
		Name:       "entities",
		Columns:    entitiesColumns,
		PrimaryKey: []*schema.Column{entitiesColumns[0]},
		Indexes: []*schema.Index{
			{Name: "entity_collection", Columns: []*schema.Column{entitiesColumns[1]}},
			{Name: "entity_collection_created_at", Columns: []*schema.Column{entitiesColumns[1], entitiesColumns[4]}},
		},
	}

	usersColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "email", Type: field.TypeString, Unique: true},
		{Name: "full_name", Type: field.TypeString, Default: ""},
		{Name: "level", Type: field.TypeString, Default: "beginner"},
		{Name: "learning_style", Type: field.TypeString, Default: "balanced"},
		{Name: "subjects", Type: field.TypeJSON},
		{Name: "rpg_enabled", Type: field.TypeBool, Default: true},
		{Name: "rpg_level", Type: field.TypeInt, Default: 1},
		{Name: "total_xp", Type: field.TypeInt, Default: 0},
		{Name: "current_level_xp", Type: field.TypeInt, Default: 0},
		{Name: "xp_to_next_level", Type: field.TypeInt, Default: 100},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	usersTable = &schema.Table{
		Name:       "users",
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	llmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "web_context", Type: field.TypeBool, Default: false},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	llmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmRequestEventsColumns,
		PrimaryKey: []*schema.Column{llmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmRequestEventsColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmRequestEventsColumns[5]}},
			{Name: "llmrequestevent_success", Columns: []*schema.Column{llmRequestEventsColumns[9]}},
		},
	}

	tables = []*schema.Table{
		entitiesTable,
		usersTable,
		llmRequestEventsTable,
	}
)

// migrate creates or upgrades all tables.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, tables...)
}
