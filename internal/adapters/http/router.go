package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/pulpuluck/internal/pkg/metrics"
)

// legacySunset is when the unversioned /api/feedback routes go away.
var legacySunset = time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	if deps.Validate == nil {
		deps.Validate = NewValidator()
	}

	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// The map client is served from another origin.
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited",
				"too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// REST API v1. The walking route handler owns its provider deadline and
	// always answers, so it gets a little more than the routing timeout.
	v1 := app.Group("/v1")
	v1.Get("/fountains", timeout.NewWithContext(ListFountainsHandler(deps), 45*time.Second))
	v1.Get("/routes/walking", timeout.NewWithContext(WalkingRouteHandler(deps), 15*time.Second))
	v1.Get("/feedback", timeout.NewWithContext(ListFeedbackHandler(deps), 15*time.Second))
	v1.Get("/feedback/:fountainId", timeout.NewWithContext(GetFeedbackHandler(deps), 15*time.Second))
	v1.Post("/feedback/:fountainId/vote", timeout.NewWithContext(VoteHandler(deps), 15*time.Second))

	// Unversioned routes kept for existing map clients.
	legacy := app.Group("/api", DeprecationMiddleware([]DeprecatedRoute{
		{Path: "/api/feedback", SunsetDate: legacySunset, Alternative: "/v1/feedback"},
		{Path: "/api/feedback/:fountainId", SunsetDate: legacySunset, Alternative: "/v1/feedback/:fountainId"},
		{Path: "/api/feedback/:fountainId/vote", SunsetDate: legacySunset, Alternative: "/v1/feedback/:fountainId/vote"},
	}))
	legacy.Get("/feedback", LegacyListFeedbackHandler(deps))
	legacy.Get("/feedback/:fountainId", GetFeedbackHandler(deps))
	legacy.Post("/feedback/:fountainId/vote", VoteHandler(deps))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
