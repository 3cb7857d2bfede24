package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/geoplan/internal/pkg/metrics"
)

// Per-route budgets. An assistant turn is one planner call followed by every
// action of the plan, each possibly retried once.
const (
	assistantTimeout = 90 * time.Second
	executeTimeout   = 60 * time.Second
	geocodeTimeout   = 35 * time.Second
	routeTimeout     = 60 * time.Second
	historyTimeout   = 10 * time.Second
)

// Options tunes the router.
type Options struct {
	// RateLimit is the number of requests per minute per IP; <= 0 disables it.
	RateLimit int
	// SpecPath is the OpenAPI document served under /docs.
	SpecPath string
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts Options) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Request-scoped slog logger
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			Next: func(c *fiber.Ctx) bool {
				// Probes and scrapes are never limited.
				p := c.Path()
				return p == "/metrics" || p == "/v1/health" || p == "/v1/ready"
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware(legacyRoutes))

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/assistant", timeout.NewWithContext(AssistantHandler(deps), assistantTimeout))
	v1.Post("/plans/execute", timeout.NewWithContext(ExecutePlanHandler(deps), executeTimeout))
	v1.Get("/plans", timeout.NewWithContext(ListPlansHandler(deps), historyTimeout))
	v1.Get("/plans/:id", timeout.NewWithContext(GetPlanHandler(deps), historyTimeout))
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), geocodeTimeout))
	v1.Get("/search", timeout.NewWithContext(SearchHandler(deps), geocodeTimeout))
	v1.Get("/area", timeout.NewWithContext(AreaHandler(deps), geocodeTimeout))
	v1.Get("/route", timeout.NewWithContext(RouteHandler(deps), routeTimeout))

	// Unversioned path of the first map client
	app.Post("/api/assistant", timeout.NewWithContext(AssistantHandler(deps), assistantTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), routeTimeout))

	// API documentation (Swagger UI)
	specPath := opts.SpecPath
	if specPath == "" {
		specPath = "api/openapi.yaml"
	}
	SetupDocs(app, specPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
