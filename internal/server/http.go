package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/lockwoodrealty/slack-intake-bridge/internal/api"
	"github.com/lockwoodrealty/slack-intake-bridge/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Webhook   *WebhookHandler
	Intake    *api.IntakeHandler
	Entities  *api.EntityHandler
	Directory *api.DirectoryHandler
	Tokens    *auth.TokenManager
}

// NewApp builds the fiber application with all routes registered.
func NewApp(cfg RouteConfig, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "slack-intake-bridge",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(requestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Slack signs its own requests; no bearer token here.
	app.Post("/slack/events", cfg.Webhook.HandleEvent)

	v1 := app.Group("/api/v1")
	v1.Post("/auth/login", cfg.Directory.Login)

	protected := v1.Group("", auth.Middleware(cfg.Tokens))
	protected.Get("/intake-records", cfg.Intake.List)
	protected.Get("/intake-records/:id", cfg.Intake.Get)
	protected.Get("/queue/stats", cfg.Intake.QueueStats)

	protected.Get("/listings", cfg.Entities.ListListings)
	protected.Get("/listings/:id", cfg.Entities.GetListing)
	protected.Get("/listings/:id/activities", cfg.Entities.ListActivities)
	protected.Get("/tasks", cfg.Entities.ListTasks)
	protected.Get("/tasks/:id", cfg.Entities.GetTask)
	protected.Patch("/tasks/:id/status", cfg.Entities.UpdateTaskStatus)

	protected.Get("/realtors", cfg.Directory.ListRealtors)
	protected.Post("/realtors", cfg.Directory.CreateRealtor)
	protected.Get("/staff", cfg.Directory.ListStaff)
	protected.Post("/staff", cfg.Directory.CreateStaff)

	return app
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	log := logger.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("elapsed", time.Since(start)))
		return err
	}
}
