package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const entitiesTableName = "entities"

var entityColumns = []string{"id", "collection", "data", "created_by", "created_at", "updated_at"}

// entityRepo implements EntityRepo on the entities table.
type entityRepo struct {
	db *sql.DB
}

func (r *entityRepo) Create(ctx context.Context, c Collection, createdBy string, data map[string]any) (*Entity, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s entity: %w", c, err)
	}

	now := time.Now().UTC()
	e := &Entity{
		ID:         uuid.NewString(),
		Collection: c,
		Data:       data,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query, args := builder().Insert(entitiesTableName).
		Columns(entityColumns...).
		Values(e.ID, string(c), string(raw), createdBy, now, now).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert %s entity: %w", c, err)
	}
	return e, nil
}

func (r *entityRepo) Get(ctx context.Context, c Collection, id string) (*Entity, error) {
	query, args := builder().Select(entityColumns...).
		From(entsql.Table(entitiesTableName)).
		Where(entsql.And(
			entsql.EQ("collection", string(c)),
			entsql.EQ("id", id),
		)).
		Query()

	e, err := scanEntity(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", c, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s entity: %w", c, err)
	}
	return e, nil
}

func (r *entityRepo) List(ctx context.Context, c Collection, opts ListOpts) ([]Entity, error) {
	return r.Filter(ctx, c, nil, opts)
}

func (r *entityRepo) Filter(ctx context.Context, c Collection, match map[string]any, opts ListOpts) ([]Entity, error) {
	preds := []*entsql.Predicate{entsql.EQ("collection", string(c))}
	for k, v := range match {
		preds = append(preds, jsonFieldEQ(k, v))
	}

	order := entsql.Desc
	if opts.Asc {
		order = entsql.Asc
	}

	sel := builder().Select(entityColumns...).
		From(entsql.Table(entitiesTableName)).
		Where(entsql.And(preds...)).
		OrderBy(order("created_at"), order("rowid"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s entities: %w", c, err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s entity: %w", c, err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *entityRepo) Update(ctx context.Context, c Collection, id string, patch map[string]any) (*Entity, error) {
	current, err := r.Get(ctx, c, id)
	if err != nil {
		return nil, err
	}

	merged := maps.Clone(current.Data)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode %s entity: %w", c, err)
	}

	now := time.Now().UTC()
	query, args := builder().Update(entitiesTableName).
		Set("data", string(raw)).
		Set("updated_at", now).
		Where(entsql.And(
			entsql.EQ("collection", string(c)),
			entsql.EQ("id", id),
		)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update %s entity: %w", c, err)
	}

	current.Data = merged
	current.UpdatedAt = now
	return current, nil
}

func (r *entityRepo) Delete(ctx context.Context, c Collection, id string) error {
	query, args := builder().Delete(entitiesTableName).
		Where(entsql.And(
			entsql.EQ("collection", string(c)),
			entsql.EQ("id", id),
		)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s entity: %w", c, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s entity: %w", c, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", c, id, ErrNotFound)
	}
	return nil
}

// jsonFieldEQ matches a top-level document field. SQLite's json_extract
// yields strings unquoted and booleans as 0/1, so v binds as a plain scalar.
func jsonFieldEQ(field string, v any) *entsql.Predicate {
	return entsql.ExprP("json_extract(data, ?) = ?", fmt.Sprintf("$.%q", field), v)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*Entity, error) {
	var (
		e          Entity
		collection string
		raw        string
	)
	if err := row.Scan(&e.ID, &collection, &raw, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Collection = Collection(collection)
	if err := json.Unmarshal([]byte(raw), &e.Data); err != nil {
		return nil, fmt.Errorf("decode entity %s: %w", e.ID, err)
	}
	return &e, nil
}
