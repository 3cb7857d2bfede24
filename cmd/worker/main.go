package main

import (
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/geoplan/internal/adapters/nominatim"
	"github.com/samirrijal/geoplan/internal/adapters/osrm"
	"github.com/samirrijal/geoplan/internal/adapters/valkey"
	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
	"github.com/samirrijal/geoplan/internal/core/usecases"
	"github.com/samirrijal/geoplan/internal/pkg/config"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
	"github.com/samirrijal/geoplan/internal/workflows"
)

func main() {
	cfg, err := config.Load("geoplan-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "geoplan"); err != nil {
		slog.Warn("valkey unavailable, geocode cache disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	geocoder := usecases.NewCachedGeocoder(
		nominatim.New(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cfg.Geocoder.TimeoutDuration()),
		cache, cfg.Geocoder.CacheTTL)
	router := osrm.New(geocoder, osrm.Backends{
		domain.ProfileDriving: cfg.Routing.DrivingURL,
		domain.ProfileWalking: cfg.Routing.WalkingURL,
		domain.ProfileCycling: cfg.Routing.CyclingURL,
	}, cfg.Geocoder.UserAgent, cfg.Routing.TimeoutDuration())

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	})
	if err != nil {
		slog.Error("temporal client", "error", err)
		os.Exit(1)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.PlanWorkflow)
	w.RegisterActivity(&workflows.PlanActivities{
		Actions: usecases.NewActionExecutor(geocoder, router),
	})

	slog.Info("plan worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		slog.Error("worker", "error", err)
		os.Exit(1)
	}
}
