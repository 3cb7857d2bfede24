package ports

import (
	"context"

	"github.com/samirrijal/geoplan/internal/core/domain"
)

// PlanRepository persists assistant exchanges.
type PlanRepository interface {
	Save(ctx context.Context, record *domain.PlanRecord) error
	GetByID(ctx context.Context, id string) (*domain.PlanRecord, error)
	ListRecent(ctx context.Context, offset, limit int) ([]domain.PlanRecord, error)
	Count(ctx context.Context) (int, error)
}

// PlanEventRepository stores broadcast plan events for auditing.
type PlanEventRepository interface {
	Insert(ctx context.Context, event *domain.PlanExecutedEvent) error
}
