package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/art-exam-api/internal/config"
	"github.com/noah-isme/art-exam-api/internal/handler"
	"github.com/noah-isme/art-exam-api/internal/middleware"
	"github.com/noah-isme/art-exam-api/internal/models"
	"github.com/noah-isme/art-exam-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HealthHandler       *handler.HealthHandler
	AuthHandler         *handler.AuthHandler
	CollegeHandler      *handler.CollegeHandler
	ExamHandler         *handler.ExamHandler
	StudentHandler      *handler.StudentHandler
	AnswerHandler       *handler.AnswerHandler
	AdminStudentHandler *handler.AdminStudentHandler
	AdminGradingHandler *handler.AdminGradingHandler
	AdminActivity       *handler.AdminActivityHandler
	AdminExportHandler  *handler.AdminExportHandler
	SeedHandler         *handler.SeedHandler
	NotificationHandler *handler.NotificationHandler
	JWTMiddleware       fiber.Handler
	SubmitLimiter       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())
	if cfg.StorageDriver == config.StorageDriverLocal && cfg.MediaURL != "" {
		app.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	healthHandler := deps.HealthHandler
	if healthHandler == nil {
		healthHandler = handler.NewHealthHandler(cfg, nil, zerolog.Nop())
	}
	healthHandler.Register(api)

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	submitLimiter := deps.SubmitLimiter
	if submitLimiter == nil {
		submitLimiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		authGroup := api.Group("/auth")
		deps.AuthHandler.Register(authGroup)
		deps.AuthHandler.RegisterProtected(authGroup.Group("", jwtMiddleware))
	}

	if deps.CollegeHandler != nil {
		deps.CollegeHandler.Register(api.Group("/colleges"))
	}

	// Tooling, guarded by its own token
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}

	// Student surface
	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(api.Group("/exams", jwtMiddleware))
	}
	if deps.StudentHandler != nil {
		deps.StudentHandler.Register(api.Group("/student", jwtMiddleware))
	}
	if deps.AnswerHandler != nil {
		answers := api.Group("/answers", jwtMiddleware)
		deps.AnswerHandler.Register(answers)
		deps.AnswerHandler.RegisterSubmissions(answers.Group("", submitLimiter))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(api.Group("/notifications", jwtMiddleware))
	}

	// Admin surface
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(models.UserRoleAdmin))
	if deps.CollegeHandler != nil {
		deps.CollegeHandler.RegisterAdmin(admin.Group("/colleges"))
	}
	if deps.ExamHandler != nil {
		deps.ExamHandler.RegisterAdmin(admin.Group("/exam-items"))
	}
	if deps.AdminStudentHandler != nil {
		deps.AdminStudentHandler.Register(admin.Group("/students"))
	}
	if deps.AdminGradingHandler != nil {
		deps.AdminGradingHandler.Register(admin.Group("/answers"))
	}
	if deps.AdminActivity != nil {
		deps.AdminActivity.Register(admin.Group("/activity"))
	}
	if deps.AdminExportHandler != nil {
		deps.AdminExportHandler.Register(admin.Group("/exports"))
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.RegisterAdmin(admin.Group("/notifications"))
	}
}
