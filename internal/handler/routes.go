package handler

import (
	"quiz-engine/internal/middleware"
	"quiz-engine/internal/service"
	"quiz-engine/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Sessions  service.SessionService
	Bank      service.BankService
	Auth      service.AuthService
	Validator *validation.Validator
}

// RegisterRoutes mounts the API on app.
func RegisterRoutes(app *fiber.App, svc Services) {
	sessionHandler := NewSessionHandler(svc.Sessions, svc.Validator)
	catalogHandler := NewCatalogHandler(svc.Bank)
	adminHandler := NewAdminHandler(svc.Bank)
	validationMW := middleware.NewValidationMiddleware(svc.Validator)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	sessions := api.Group("/sessions")
	sessions.Post("/", sessionHandler.CreateSession)
	sessions.Get("/:id/question", validationMW.ValidateSessionID(), sessionHandler.GetCurrentQuestion)
	sessions.Post("/:id/answers", validationMW.ValidateSessionID(), sessionHandler.SubmitAnswer)
	sessions.Post("/:id/finalize", validationMW.ValidateSessionID(), sessionHandler.Finalize)
	sessions.Get("/:id/report", validationMW.ValidateSessionID(), sessionHandler.GetReport)

	catalog := api.Group("/catalog")
	catalog.Get("/", catalogHandler.GetCatalog)
	catalog.Get("/recovery/:discipline/topics", validationMW.ValidateDiscipline(), catalogHandler.GetRecoveryTopics)

	admin := api.Group("/admin", middleware.AdminOnly(svc.Auth))
	admin.Get("/stats", adminHandler.GetStats)
	admin.Post("/bank/reload", adminHandler.ReloadBank)
}
