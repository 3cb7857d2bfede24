package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	natsadapter "github.com/samirrijal/geoplan/internal/adapters/nats"
	"github.com/samirrijal/geoplan/internal/adapters/postgres"
	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/usecases"
	"github.com/samirrijal/geoplan/internal/pkg/config"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
)

// auditor consumes executed-plan events from JetStream and stores them in
// plan_events.
func main() {
	cfg, err := config.Load("geoplan-auditor")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		slog.Error("database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "geoplan-auditor")
	if err != nil {
		slog.Error("nats", "error", err)
		os.Exit(1)
	}
	defer sub.Close()

	audit := usecases.NewAuditService(postgres.NewPlanEventRepo(db))
	err = sub.SubscribePlanExecuted(ctx, func(ctx context.Context, ev *domain.PlanExecutedEvent) error {
		return audit.Record(ctx, ev)
	})
	if err != nil {
		slog.Error("subscribe", "error", err)
		os.Exit(1)
	}

	slog.Info("auditor started", "stream", natsadapter.StreamPlans, "subject", natsadapter.SubjectPlanExecuted)
	<-ctx.Done()
	slog.Info("auditor stopped")
}
