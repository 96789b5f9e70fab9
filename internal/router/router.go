package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/sidupak-api/internal/config"
	"github.com/noah-isme/sidupak-api/internal/credit"
	"github.com/noah-isme/sidupak-api/internal/handler"
	"github.com/noah-isme/sidupak-api/internal/middleware"
	"github.com/noah-isme/sidupak-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler  *handler.SubmissionHandler
	EducationHandler *handler.SubmissionHandler
	SummaryHandler   *handler.CreditSummaryHandler
	AuditHandler     *handler.AuditHandler
	JWTMiddleware    fiber.Handler
	UploadLimiter    fiber.Handler
	HealthProbes     []handler.HealthProbe
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes...))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Pelaksanaan pendidikan (teaching activities)
	if deps.ActivityHandler != nil {
		activities := api.Group("/activities", jwtMiddleware)
		deps.ActivityHandler.Register(activities, deps.UploadLimiter)
	}

	// Pendidikan (formal education & diklat)
	if deps.EducationHandler != nil {
		education := api.Group("/education", jwtMiddleware)
		deps.EducationHandler.Register(education, deps.UploadLimiter)
	}

	if deps.SummaryHandler != nil {
		credits := api.Group("/credits", jwtMiddleware)
		deps.SummaryHandler.Register(credits)
	}

	// Audit trail
	if deps.AuditHandler != nil {
		audit := api.Group("/audit-logs", jwtMiddleware, middleware.RequireRole(credit.RoleAdmin))
		deps.AuditHandler.Register(audit)
	}
}
