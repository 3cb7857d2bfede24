package postgres

import (
	"context"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

// PlanEventRepo implements ports.PlanEventRepository on the plan_events table.
type PlanEventRepo struct {
	db *DB
}

func NewPlanEventRepo(db *DB) *PlanEventRepo {
	return &PlanEventRepo{db: db}
}

// Insert is idempotent per plan ID so that redelivered events are harmless.
func (r *PlanEventRepo) Insert(ctx context.Context, ev *domain.PlanExecutedEvent) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO plan_events (plan_id, prompt, planned, executed, warnings, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (plan_id) DO NOTHING
	`, ev.PlanID, ev.Prompt, ev.Actions, ev.Executed, nonNil(ev.Warnings), ev.ExecutedAt)
	return err
}
