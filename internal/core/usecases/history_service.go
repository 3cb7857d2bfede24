package usecases

import (
	"context"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryPage is one slice of the plan history, newest first.
type HistoryPage struct {
	Records []domain.PlanRecord
	Offset  int
	Limit   int
	Total   int
}

// HistoryService reads past assistant exchanges.
type HistoryService struct {
	plans ports.PlanRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(plans ports.PlanRepository) *HistoryService {
	return &HistoryService{plans: plans}
}

// Recent returns one page of exchanges. limit outside [1, 100] becomes 20 and a
// negative offset becomes 0.
func (s *HistoryService) Recent(ctx context.Context, offset, limit int) (*HistoryPage, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset = max(offset, 0)

	records, err := s.plans.ListRecent(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.plans.Count(ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.PlanRecord{}
	}
	return &HistoryPage{Records: records, Offset: offset, Limit: limit, Total: total}, nil
}

// GetByID returns one exchange.
func (s *HistoryService) GetByID(ctx context.Context, id string) (*domain.PlanRecord, error) {
	if id == "" {
		return nil, domain.Validation("plan id must not be empty")
	}
	return s.plans.GetByID(ctx, id)
}
