package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
)

// Replies used when at least one action failed.
const (
	replyNotFound = "Sorry, I couldn't pin down that exact place. Could you check the name or add the city? (e.g. 'Calle Alcalá, Madrid')"
	replyUpstream = "The external map service is having technical trouble right now. This is usually temporary: try another travel mode or wait a few minutes."
	replyGeneric  = "I ran into a problem processing your request: %s. Could you try it another way?"
)

// AssistantRequest is one user turn.
type AssistantRequest struct {
	Prompt  string             `json:"prompt"`
	History []domain.Message   `json:"history,omitempty"`
	Context *domain.MapContext `json:"context,omitempty"`
}

// AssistantResponse is the reply plus verified map data.
type AssistantResponse struct {
	PlanID   string                  `json:"plan_id"`
	Reply    string                  `json:"reply"`
	Actions  []domain.ExecutedAction `json:"actions"`
	Warnings []string                `json:"warnings,omitempty"`
}

// AssistantService plans a request, executes the plan and assembles the reply.
type AssistantService struct {
	planner   ports.Planner
	executor  *PlanExecutor
	plans     ports.PlanRepository
	publisher ports.EventPublisher
	now       func() time.Time
}

// NewAssistantService creates a new AssistantService. plans and publisher may be nil.
func NewAssistantService(planner ports.Planner, executor *PlanExecutor, plans ports.PlanRepository, publisher ports.EventPublisher) *AssistantService {
	return &AssistantService{
		planner:   planner,
		executor:  executor,
		plans:     plans,
		publisher: publisher,
		now:       time.Now,
	}
}

// Handle runs the full pipeline. Planner failures are returned as errors;
// action failures only become warnings.
func (s *AssistantService) Handle(ctx context.Context, req AssistantRequest) (*AssistantResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.Validation("prompt must not be empty")
	}

	plan, err := s.planner.Plan(ctx, prompt, req.History)
	if err != nil {
		return nil, fmt.Errorf("plan request: %w", err)
	}

	outcome := s.executor.ExecutePlan(ctx, plan.Actions, req.Context)

	resp := &AssistantResponse{
		PlanID:   newPlanID(),
		Reply:    plan.Reply,
		Actions:  outcome.Executed,
		Warnings: outcome.Warnings,
	}
	if len(outcome.Warnings) > 0 {
		resp.Reply = RewriteReply(outcome.Warnings)
	}

	s.record(ctx, prompt, plan, resp)
	return resp, nil
}

// ExecutePlan runs a caller-supplied plan without the planner.
func (s *AssistantService) ExecutePlan(ctx context.Context, actions []domain.Action, mapCtx *domain.MapContext) domain.ExecutionOutcome {
	return s.executor.ExecutePlan(ctx, actions, mapCtx)
}

// RewriteReply turns warnings into an apologetic, actionable reply.
func RewriteReply(warnings []string) string {
	details := strings.Join(warnings, "; ")
	switch {
	case strings.Contains(details, domain.NotFoundFragment):
		return replyNotFound
	case strings.Contains(details, domain.UpstreamStatusFragment), strings.Contains(details, domain.ErrNetwork.Error()):
		return replyUpstream
	default:
		return fmt.Sprintf(replyGeneric, details)
	}
}

// record persists and broadcasts the exchange. Both are best-effort.
func (s *AssistantService) record(ctx context.Context, prompt string, plan *domain.Plan, resp *AssistantResponse) {
	log := logging.FromContext(ctx)
	now := s.now().UTC()

	if s.plans != nil {
		rec := &domain.PlanRecord{
			ID:        resp.PlanID,
			Prompt:    prompt,
			Reply:     resp.Reply,
			Actions:   plan.Actions,
			Executed:  resp.Actions,
			Warnings:  resp.Warnings,
			CreatedAt: now,
		}
		if err := s.plans.Save(ctx, rec); err != nil {
			log.WarnContext(ctx, "save plan history failed", "plan_id", resp.PlanID, "error", err)
		}
	}

	if s.publisher != nil {
		ev := &domain.PlanExecutedEvent{
			PlanID:     resp.PlanID,
			Prompt:     prompt,
			Actions:    len(plan.Actions),
			Executed:   len(resp.Actions),
			Warnings:   resp.Warnings,
			ExecutedAt: now,
		}
		if err := s.publisher.PublishPlanExecuted(ctx, ev); err != nil {
			log.WarnContext(ctx, "publish plan event failed", "plan_id", resp.PlanID, "error", err)
		}
	}
}

func newPlanID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
