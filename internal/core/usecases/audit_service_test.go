package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/usecases"
)

func TestAuditService_Record(t *testing.T) {
	repo := &mockEventRepo{}
	svc := usecases.NewAuditService(repo)

	ev := &domain.PlanExecutedEvent{PlanID: "p1", Prompt: "hi", Actions: 2, Executed: 1,
		Warnings: []string{"no results found"}, ExecutedAt: time.Now()}
	if err := svc.Record(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].PlanID != "p1" {
		t.Errorf("expected event to be stored, got %+v", repo.inserted)
	}
}

func TestAuditService_RejectsMissingPlanID(t *testing.T) {
	repo := &mockEventRepo{}
	svc := usecases.NewAuditService(repo)

	if err := svc.Record(context.Background(), &domain.PlanExecutedEvent{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := svc.Record(context.Background(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for nil event, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Error("invalid events must not be stored")
	}
}

func TestAuditService_WrapsInsertError(t *testing.T) {
	dbErr := errors.New("db down")
	svc := usecases.NewAuditService(&mockEventRepo{err: dbErr})

	err := svc.Record(context.Background(), &domain.PlanExecutedEvent{PlanID: "p2"})
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
