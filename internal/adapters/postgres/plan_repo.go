package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

// PlanRepo implements ports.PlanRepository on the plan_history table.
type PlanRepo struct {
	db *DB
}

func NewPlanRepo(db *DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Save inserts a record. Saving the same ID twice keeps the first copy.
func (r *PlanRepo) Save(ctx context.Context, rec *domain.PlanRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO plan_history (id, prompt, reply, planned_actions, executed_actions, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, rec.ID, rec.Prompt, rec.Reply, nonNil(rec.Actions), nonNil(rec.Executed), nonNil(rec.Warnings), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert plan %s: %w", rec.ID, err)
	}
	return nil
}

func (r *PlanRepo) GetByID(ctx context.Context, id string) (*domain.PlanRecord, error) {
	rec, err := scanPlan(r.db.Pool.QueryRow(ctx, `
		SELECT id, prompt, reply, planned_actions, executed_actions, warnings, created_at
		FROM plan_history WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PlanRepo) ListRecent(ctx context.Context, offset, limit int) ([]domain.PlanRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, prompt, reply, planned_actions, executed_actions, warnings, created_at
		FROM plan_history ORDER BY created_at DESC, id DESC OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PlanRecord
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *PlanRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM plan_history`).Scan(&n)
	return n, err
}

func scanPlan(row pgx.Row) (*domain.PlanRecord, error) {
	rec := &domain.PlanRecord{}
	err := row.Scan(&rec.ID, &rec.Prompt, &rec.Reply, &rec.Actions, &rec.Executed, &rec.Warnings, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// nonNil keeps jsonb columns as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
