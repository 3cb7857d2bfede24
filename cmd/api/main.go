package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/samirrijal/geoplan/internal/adapters/gemini"
	"github.com/samirrijal/geoplan/internal/adapters/http"
	natsadapter "github.com/samirrijal/geoplan/internal/adapters/nats"
	"github.com/samirrijal/geoplan/internal/adapters/nominatim"
	"github.com/samirrijal/geoplan/internal/adapters/osrm"
	"github.com/samirrijal/geoplan/internal/adapters/postgres"
	"github.com/samirrijal/geoplan/internal/adapters/valkey"
	"github.com/samirrijal/geoplan/internal/core/domain"
	"github.com/samirrijal/geoplan/internal/core/ports"
	"github.com/samirrijal/geoplan/internal/core/usecases"
	"github.com/samirrijal/geoplan/internal/pkg/config"
	"github.com/samirrijal/geoplan/internal/pkg/logging"
	"github.com/samirrijal/geoplan/internal/pkg/metrics"
	"github.com/samirrijal/geoplan/internal/pkg/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load("geoplan-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Structured logging
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{Version: version}

	// Database: plan history is optional
	var plans ports.PlanRepository
	db, err := postgres.New(ctx, cfg.Database.DSN(), 10)
	if err != nil {
		slog.Warn("database unavailable, plan history disabled", "error", err)
	} else {
		defer db.Close()
		plans = postgres.NewPlanRepo(db)
		deps.DB = db
		go reportPoolStats(ctx, db)
	}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, "geoplan")
	if err != nil {
		slog.Warn("valkey unavailable, geocode cache disabled", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, plan events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Drain()
		deps.NATS = natsConn
	}

	// Providers
	geocoder := usecases.NewCachedGeocoder(
		nominatim.New(cfg.Geocoder.URL, cfg.Geocoder.UserAgent, cfg.Geocoder.TimeoutDuration()),
		cache, cfg.Geocoder.CacheTTL)
	router := osrm.New(geocoder, osrm.Backends{
		domain.ProfileDriving: cfg.Routing.DrivingURL,
		domain.ProfileWalking: cfg.Routing.WalkingURL,
		domain.ProfileCycling: cfg.Routing.CyclingURL,
	}, cfg.Geocoder.UserAgent, cfg.Routing.TimeoutDuration())
	planner := gemini.New(gemini.Options{
		APIKey:   cfg.Planner.APIKey,
		Model:    cfg.Planner.Model,
		BaseURL:  cfg.Planner.BaseURL,
		Versions: cfg.Planner.VersionList(),
		Timeout:  cfg.Planner.TimeoutDuration(),
	})
	if cfg.Planner.APIKey == "" {
		slog.Warn("planner api key not set, /v1/assistant will answer 503")
	}

	// Use cases
	actions := usecases.NewActionExecutor(geocoder, router)
	deps.Actions = actions
	deps.Assistant = usecases.NewAssistantService(planner,
		usecases.NewPlanExecutor(actions, cfg.Executor.Parallelism), plans, publisher)
	if plans != nil {
		deps.History = usecases.NewHistoryService(plans)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Geoplan API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps, http.Options{
		RateLimit: cfg.Server.RateLimit,
		SpecPath:  "api/openapi.yaml",
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			slog.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Stat())
		}
	}
}
