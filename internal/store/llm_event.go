package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const llmEventsTableName = "llm_request_events"

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success", "web_context",
	"error_message", "request_body", "response_body",
}

// eventRepo implements EventRepo backed by ent's SQL builders and the global
// sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(llmEventsTableName).
		Columns(llmEventColumns[1:]...).
		Values(
			seqNum, time.Now().UTC(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.WebContext,
			data.ErrorMessage, data.RequestBody, data.ResponseBody,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		preds = append(preds, entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}

	sel := builder().Select(llmEventColumns...).
		From(entsql.Table(llmEventsTableName)).
		OrderBy(entsql.Desc("sequence"))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEventRecord
	for rows.Next() {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	query, args := builder().Select(llmEventColumns...).
		From(entsql.Table(llmEventsTableName)).
		Where(entsql.EQ("id", id)).
		Query()

	rec, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LLM event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return rec, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	rows, err := r.usage(ctx, "purpose")
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Purpose = rows[i].Model
		rows[i].Model = ""
	}
	return rows, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

// usage aggregates events grouped by column. The group key is returned in
// the Model field; callers move it where it belongs.
func (r *eventRepo) usage(ctx context.Context, column string) ([]LLMUsage, error) {
	query, args := builder().Select(
		column,
		entsql.Count("*"),
		entsql.Sum("input_tokens"),
		entsql.Sum("output_tokens"),
		entsql.Avg("latency_ms"),
	).
		From(entsql.Table(llmEventsTableName)).
		GroupBy(column).
		OrderBy(entsql.Desc(entsql.Count("*"))).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u   LLMUsage
			avg float64
		)
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLLMEvent(row rowScanner) (*LLMRequestEventRecord, error) {
	var rec LLMRequestEventRecord
	err := row.Scan(
		&rec.ID, &rec.Sequence, &rec.Timestamp, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.Success, &rec.WebContext,
		&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
