package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const usersTableName = "users"

var userColumns = []string{
	"id", "email", "full_name", "level", "learning_style", "subjects",
	"rpg_enabled", "rpg_level", "total_xp", "current_level_xp", "xp_to_next_level",
	"created_at", "updated_at",
}

// DefaultStats is the progression state of a learner who has earned nothing.
var DefaultStats = RPGStats{Level: 1, TotalXP: 0, CurrentLevelXP: 0, XPToNextLevel: 100}

// userRepo implements UserRepo for a single configured learner.
type userRepo struct {
	db      *sql.DB
	email   string
	statsMu *sync.Mutex
}

// rowQuerier is satisfied by *sql.DB and *sql.Conn.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *userRepo) CurrentUser(ctx context.Context) (*User, error) {
	u, err := r.byEmail(ctx, r.db)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	return r.create(ctx)
}

func (r *userRepo) UpdateCurrentUser(ctx context.Context, patch UserPatch) (*User, error) {
	u, err := r.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	upd := builder().Update(usersTableName)
	if patch.FullName != nil {
		u.FullName = *patch.FullName
		upd.Set("full_name", u.FullName)
	}
	if patch.Level != nil {
		u.Level = *patch.Level
		upd.Set("level", u.Level)
	}
	if patch.LearningStyle != nil {
		u.LearningStyle = *patch.LearningStyle
		upd.Set("learning_style", u.LearningStyle)
	}
	if patch.Subjects != nil {
		u.Subjects = patch.Subjects
		raw, err := json.Marshal(u.Subjects)
		if err != nil {
			return nil, fmt.Errorf("encode subjects: %w", err)
		}
		upd.Set("subjects", string(raw))
	}
	if patch.RPGEnabled != nil {
		u.RPGEnabled = *patch.RPGEnabled
		upd.Set("rpg_enabled", u.RPGEnabled)
	}
	if patch.Stats != nil {
		u.Stats = *patch.Stats
		setStats(upd, u.Stats)
	}

	u.UpdatedAt = time.Now().UTC()
	query, args := upd.Set("updated_at", u.UpdatedAt).
		Where(entsql.EQ("id", u.ID)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update current user: %w", err)
	}
	return u, nil
}

// ApplyStats holds a write lock on the database from read to write so
// concurrent awards, including those from other processes, never
// overwrite each other.
func (r *userRepo) ApplyStats(ctx context.Context, fn func(RPGStats) RPGStats) (*User, error) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	if _, err := r.CurrentUser(ctx); err != nil {
		return nil, err
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	// busy_timeout is per connection; the pool may hand out a fresh one.
	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, fmt.Errorf("begin stats transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
		}
	}()

	u, err := r.byEmail(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	u.Stats = fn(u.Stats)
	u.UpdatedAt = time.Now().UTC()

	upd := builder().Update(usersTableName)
	setStats(upd, u.Stats)
	query, args := upd.Set("updated_at", u.UpdatedAt).
		Where(entsql.EQ("id", u.ID)).
		Query()
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update stats: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, fmt.Errorf("commit stats: %w", err)
	}
	committed = true
	return u, nil
}

func setStats(upd *entsql.UpdateBuilder, s RPGStats) {
	upd.Set("rpg_level", s.Level).
		Set("total_xp", s.TotalXP).
		Set("current_level_xp", s.CurrentLevelXP).
		Set("xp_to_next_level", s.XPToNextLevel)
}

func (r *userRepo) byEmail(ctx context.Context, q rowQuerier) (*User, error) {
	query, args := builder().Select(userColumns...).
		From(entsql.Table(usersTableName)).
		Where(entsql.EQ("email", r.email)).
		Query()

	var (
		u        User
		subjects string
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Level, &u.LearningStyle, &subjects,
		&u.RPGEnabled, &u.Stats.Level, &u.Stats.TotalXP, &u.Stats.CurrentLevelXP, &u.Stats.XPToNextLevel,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if subjects != "" {
		if err := json.Unmarshal([]byte(subjects), &u.Subjects); err != nil {
			return nil, fmt.Errorf("decode subjects: %w", err)
		}
	}
	return &u, nil
}

func (r *userRepo) create(ctx context.Context) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:            uuid.NewString(),
		Email:         r.email,
		Level:         "beginner",
		LearningStyle: "balanced",
		Subjects:      []string{},
		RPGEnabled:    true,
		Stats:         DefaultStats,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	query, args := builder().Insert(usersTableName).
		Columns(userColumns...).
		Values(
			u.ID, u.Email, u.FullName, u.Level, u.LearningStyle, "[]",
			u.RPGEnabled, u.Stats.Level, u.Stats.TotalXP, u.Stats.CurrentLevelXP, u.Stats.XPToNextLevel,
			now, now,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("create current user: %w", err)
	}
	return u, nil
}
