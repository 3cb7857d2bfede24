package workflows

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/usecases"
)

// ActionInput is the input for the ExecuteAction activity.
type ActionInput struct {
	Index   int                `json:"index"`
	Action  domain.Action      `json:"action"`
	Context *domain.MapContext `json:"context,omitempty"`
}

// PlanActivities holds the activity implementations for the plan workflow.
type PlanActivities struct {
	Actions usecases.ActionRunner
}

// ExecuteAction runs one action. Failures are returned as non-retryable
// application errors typed with the domain error kind.
func (a *PlanActivities) ExecuteAction(ctx context.Context, in ActionInput) (*domain.ExecutedAction, error) {
	logger := activity.GetLogger(ctx)

	res, err := a.Actions.Execute(ctx, in.Action, in.Context)
	if err != nil {
		logger.Warn("action failed", "index", in.Index, "type", in.Action.Type, "kind", domain.Kind(err))
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), domain.Kind(err), nil)
	}
	if res == nil {
		return nil, temporal.NewNonRetryableApplicationError("action produced no result", "internal", nil)
	}
	return res, nil
}
