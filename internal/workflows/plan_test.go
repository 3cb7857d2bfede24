package workflows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

type PlanWorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *PlanWorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterActivity(&PlanActivities{})
}

func (s *PlanWorkflowSuite) AfterTest(_, _ string) {
	s.env.AssertExpectations(s.T())
}

func (s *PlanWorkflowSuite) TestAllActionsSucceed() {
	var a *PlanActivities
	s.env.OnActivity(a.ExecuteAction, mock.Anything, mock.MatchedBy(func(in ActionInput) bool { return in.Index == 0 })).
		Return(&domain.ExecutedAction{Type: domain.ActionPlace, Payload: domain.GeocodedPlace{DisplayName: "Puerta del Sol"}}, nil).Once()
	s.env.OnActivity(a.ExecuteAction, mock.Anything, mock.MatchedBy(func(in ActionInput) bool { return in.Index == 1 })).
		Return(&domain.ExecutedAction{Type: domain.ActionRoute, Payload: &domain.RouteResult{Profile: domain.ProfileWalking, Steps: []domain.Step{}}}, nil).Once()

	s.env.ExecuteWorkflow(PlanWorkflow, PlanInput{
		PlanID: "plan-1",
		Actions: []domain.Action{
			{Type: "place", Params: map[string]any{"query": "Puerta del Sol"}},
			{Type: "route", Params: map[string]any{"origin": "Sol", "destination": "Retiro", "profile": "walk"}},
		},
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var outcome domain.ExecutionOutcome
	s.NoError(s.env.GetWorkflowResult(&outcome))
	s.Require().Len(outcome.Executed, 2)
	s.Empty(outcome.Warnings)

	place, ok := outcome.Executed[0].Payload.(domain.GeocodedPlace)
	s.True(ok)
	s.Equal("Puerta del Sol", place.DisplayName)
	route, ok := outcome.Executed[1].Payload.(*domain.RouteResult)
	s.True(ok)
	s.Equal(domain.ProfileWalking, route.Profile)
}

func (s *PlanWorkflowSuite) TestFailureBecomesWarning() {
	var a *PlanActivities
	s.env.OnActivity(a.ExecuteAction, mock.Anything, mock.MatchedBy(func(in ActionInput) bool { return in.Index == 0 })).
		Return(nil, temporal.NewNonRetryableApplicationError(`not found: no results found for "Atlantis"`, "not_found", nil)).Once()
	s.env.OnActivity(a.ExecuteAction, mock.Anything, mock.MatchedBy(func(in ActionInput) bool { return in.Index == 1 })).
		Return(&domain.ExecutedAction{Type: domain.ActionSearch, Payload: []domain.GeocodedPlace{{DisplayName: "Zara"}}}, nil).Once()

	s.env.ExecuteWorkflow(PlanWorkflow, PlanInput{
		Actions: []domain.Action{
			{Type: "place", Params: map[string]any{"query": "Atlantis"}},
			{Type: "search", Params: map[string]any{"query": "Zara"}},
		},
	})

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())

	var outcome domain.ExecutionOutcome
	s.NoError(s.env.GetWorkflowResult(&outcome))
	s.Len(outcome.Executed, 1)
	s.Require().Len(outcome.Warnings, 1)
	s.Contains(outcome.Warnings[0], domain.NotFoundFragment)
	s.Require().Len(outcome.Failures, 1)
	s.Equal(0, outcome.Failures[0].Index)
	s.Equal("place", outcome.Failures[0].Type)
}

func TestPlanWorkflowSuite(t *testing.T) {
	suite.Run(t, new(PlanWorkflowSuite))
}

type stubRunner struct {
	res *domain.ExecutedAction
	err error
}

func (r stubRunner) Execute(context.Context, domain.Action, *domain.MapContext) (*domain.ExecutedAction, error) {
	return r.res, r.err
}

func TestExecuteAction(t *testing.T) {
	var ts testsuite.WorkflowTestSuite

	t.Run("success", func(t *testing.T) {
		env := ts.NewTestActivityEnvironment()
		acts := &PlanActivities{Actions: stubRunner{res: &domain.ExecutedAction{
			Type: domain.ActionPlace, Payload: domain.GeocodedPlace{DisplayName: "Retiro"},
		}}}
		env.RegisterActivity(acts)

		val, err := env.ExecuteActivity(acts.ExecuteAction, ActionInput{Action: domain.Action{Type: "place"}})
		require.NoError(t, err)

		var out domain.ExecutedAction
		require.NoError(t, val.Get(&out))
		assert.Equal(t, domain.ActionPlace, out.Type)
		assert.Equal(t, "Retiro", out.Payload.(domain.GeocodedPlace).DisplayName)
	})

	t.Run("domain error is typed and not retried", func(t *testing.T) {
		env := ts.NewTestActivityEnvironment()
		acts := &PlanActivities{Actions: stubRunner{err: domain.UnknownAction("teleport")}}
		env.RegisterActivity(acts)

		_, err := env.ExecuteActivity(acts.ExecuteAction, ActionInput{Action: domain.Action{Type: "teleport"}})
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "unknown_action", appErr.Type())
		assert.True(t, appErr.NonRetryable())
		assert.Contains(t, appErr.Error(), "teleport")
	})
}
