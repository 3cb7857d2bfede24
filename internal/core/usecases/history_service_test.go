package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/usecases"
)

func TestHistoryService_Recent(t *testing.T) {
	tests := []struct {
		name                 string
		offset, limit        int
		wantOffset, wantLimit int
	}{
		{"defaults", 0, 0, 0, 20},
		{"explicit", 40, 10, 40, 10},
		{"too large", 0, 500, 0, 20},
		{"negative offset", -5, 5, 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOffset, gotLimit int
			repo := &mockPlanRepo{
				listRecentFn: func(ctx context.Context, offset, limit int) ([]domain.PlanRecord, error) {
					gotOffset, gotLimit = offset, limit
					return nil, nil
				},
				countFn: func(context.Context) (int, error) { return 42, nil },
			}
			svc := usecases.NewHistoryService(repo)

			page, err := svc.Recent(context.Background(), tt.offset, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotOffset != tt.wantOffset || gotLimit != tt.wantLimit {
				t.Errorf("repo called with offset=%d limit=%d, want %d/%d", gotOffset, gotLimit, tt.wantOffset, tt.wantLimit)
			}
			if page.Total != 42 || page.Records == nil {
				t.Errorf("unexpected page %+v", page)
			}
		})
	}
}

func TestHistoryService_RecentError(t *testing.T) {
	repo := &mockPlanRepo{listRecentFn: func(context.Context, int, int) ([]domain.PlanRecord, error) {
		return nil, errors.New("db down")
	}}
	if _, err := usecases.NewHistoryService(repo).Recent(context.Background(), 0, 10); err == nil {
		t.Fatal("expected error")
	}
}

func TestHistoryService_GetByID(t *testing.T) {
	repo := &mockPlanRepo{getByIDFn: func(ctx context.Context, id string) (*domain.PlanRecord, error) {
		return &domain.PlanRecord{ID: id, Prompt: "hello"}, nil
	}}
	svc := usecases.NewHistoryService(repo)

	rec, err := svc.GetByID(context.Background(), "plan-7")
	if err != nil || rec.ID != "plan-7" {
		t.Fatalf("GetByID() = %+v, %v", rec, err)
	}
	if _, err := svc.GetByID(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for an empty id, got %v", err)
	}
}
