package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

// TaskQueue is the queue the worker polls for plan workflows.
const TaskQueue = "geoplan-plans"

// PlanInput is the input for the plan workflow.
type PlanInput struct {
	PlanID  string             `json:"plan_id"`
	Actions []domain.Action    `json:"actions"`
	Context *domain.MapContext `json:"context,omitempty"`
}

// PlanWorkflow executes every action in order, one activity per action.
// A failed action adds a warning and never stops the plan, so the workflow
// itself only fails when it is cancelled.
func PlanWorkflow(ctx workflow.Context, input PlanInput) (domain.ExecutionOutcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting plan workflow", "planID", input.PlanID, "actions", len(input.Actions))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1, // the executor already retries the raw query once
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var a *PlanActivities
	outcome := domain.ExecutionOutcome{Executed: make([]domain.ExecutedAction, 0, len(input.Actions))}
	for i, action := range input.Actions {
		var executed domain.ExecutedAction
		err := workflow.ExecuteActivity(ctx, a.ExecuteAction, ActionInput{
			Index:   i,
			Action:  action,
			Context: input.Context,
		}).Get(ctx, &executed)
		if temporal.IsCanceledError(err) {
			return outcome, err
		}
		if err != nil {
			msg := failureMessage(err)
			outcome.Warnings = append(outcome.Warnings, msg)
			outcome.Failures = append(outcome.Failures, domain.ActionFailure{Index: i, Type: action.Type, Message: msg})
			continue
		}
		outcome.Executed = append(outcome.Executed, executed)
	}

	logger.Info("Plan workflow finished", "planID", input.PlanID,
		"executed", len(outcome.Executed), "warnings", len(outcome.Warnings))
	return outcome, nil
}

// failureMessage extracts the original action error text from an activity failure.
func failureMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	var timeoutErr *temporal.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "action timed out"
	}
	return err.Error()
}
