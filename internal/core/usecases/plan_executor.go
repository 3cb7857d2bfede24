package usecases

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
	"github.com/samirrijal/geoplan/internal/pkg/telemetry"
)

// ActionRunner executes one action. *ActionExecutor satisfies it.
type ActionRunner interface {
	Execute(ctx context.Context, action domain.Action, mapCtx *domain.MapContext) (*domain.ExecutedAction, error)
}

// PlanExecutor runs every action of a plan, turning individual failures into warnings.
type PlanExecutor struct {
	runner      ActionRunner
	parallelism int
}

// NewPlanExecutor creates a new PlanExecutor. parallelism <= 1 runs actions one
// at a time in order.
func NewPlanExecutor(runner ActionRunner, parallelism int) *PlanExecutor {
	if parallelism < 1 {
		parallelism = 1
	}
	return &PlanExecutor{runner: runner, parallelism: parallelism}
}

type actionResult struct {
	executed *domain.ExecutedAction
	err      error
}

// ExecutePlan never fails: each action either lands in Executed (in plan order)
// or contributes one entry to Warnings and Failures.
func (p *PlanExecutor) ExecutePlan(ctx context.Context, actions []domain.Action, mapCtx *domain.MapContext) domain.ExecutionOutcome {
	ctx, span := tracer.Start(ctx, "plan.execute",
		trace.WithAttributes(telemetry.AttrPlanActions.Int(len(actions))))
	defer span.End()

	results := make([]actionResult, len(actions))
	if p.parallelism == 1 || len(actions) < 2 {
		for i, a := range actions {
			results[i] = p.run(ctx, i, a, mapCtx)
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, p.parallelism)
		for i, a := range actions {
			wg.Add(1)
			go func(i int, a domain.Action) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[i] = p.run(ctx, i, a, mapCtx)
			}(i, a)
		}
		wg.Wait()
	}

	outcome := domain.ExecutionOutcome{Executed: make([]domain.ExecutedAction, 0, len(actions))}
	for i, r := range results {
		if r.err != nil {
			outcome.Warnings = append(outcome.Warnings, r.err.Error())
			outcome.Failures = append(outcome.Failures, domain.ActionFailure{
				Index:   i,
				Type:    actions[i].Type,
				Message: r.err.Error(),
			})
			continue
		}
		outcome.Executed = append(outcome.Executed, *r.executed)
	}

	span.SetAttributes(telemetry.AttrPlanWarnings.Int(len(outcome.Warnings)))
	return outcome
}

func (p *PlanExecutor) run(ctx context.Context, index int, action domain.Action, mapCtx *domain.MapContext) (res actionResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "action panicked", "index", index, "type", action.Type, "panic", r)
			res = actionResult{err: fmt.Errorf("internal error executing %q action", action.Type)}
		}
	}()

	ctx, span := tracer.Start(ctx, "plan.action",
		trace.WithAttributes(telemetry.AttrActionIndex.Int(index)))
	defer span.End()

	executed, err := p.runner.Execute(ctx, action, mapCtx)
	if err == nil && executed == nil {
		err = fmt.Errorf("%q action produced no result", action.Type)
	}
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "action failed",
			"index", index, "type", action.Type, "kind", domain.Kind(err), "error", err)
	}
	return actionResult{executed: executed, err: err}
}
