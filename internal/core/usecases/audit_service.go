package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
	"github.com/samirrijal/geoplan/internal/pkg/metrics"
)

// AuditService stores broadcast plan events.
type AuditService struct {
	events ports.PlanEventRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(events ports.PlanEventRepository) *AuditService {
	return &AuditService{events: events}
}

// Record persists one event. Events without a plan ID are rejected.
func (s *AuditService) Record(ctx context.Context, ev *domain.PlanExecutedEvent) error {
	if ev == nil || strings.TrimSpace(ev.PlanID) == "" {
		metrics.PlanEventsAudited.WithLabelValues("invalid").Inc()
		return domain.Validation("plan event has no plan id")
	}
	if err := s.events.Insert(ctx, ev); err != nil {
		metrics.PlanEventsAudited.WithLabelValues("error").Inc()
		return fmt.Errorf("insert plan event %s: %w", ev.PlanID, err)
	}
	metrics.PlanEventsAudited.WithLabelValues("stored").Inc()

	if len(ev.Warnings) > 0 {
		logging.FromContext(ctx).InfoContext(ctx, "plan finished with warnings",
			"plan_id", ev.PlanID, "executed", ev.Executed, "planned", ev.Actions, "warnings", len(ev.Warnings))
	}
	return nil
}
