package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helioshop/concierge-backend/internal/config"
	"github.com/helioshop/concierge-backend/internal/handlers"
	"github.com/helioshop/concierge-backend/internal/middleware"
	"github.com/helioshop/concierge-backend/internal/storage"
)

// SetupRoutes registers all HTTP endpoints.
func SetupRoutes(app *fiber.App, cfg *config.Config, store storage.SessionStore, whatsapp *handlers.WhatsAppHandler) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "WhatsApp Concierge Backend is running!",
			"endpoints": fiber.Map{
				"health":        "/health",
				"status":        "/status",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
			},
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
		})
	})

	// Active session count for monitoring.
	app.Get("/status", func(c *fiber.Ctx) error {
		active, err := store.ActiveCount()
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  "session store unavailable",
			})
		}
		return c.JSON(fiber.Map{
			"status":          "active",
			"active_sessions": active,
			"timestamp":       time.Now().Format(time.RFC3339),
		})
	})

	webhooks := app.Group("/webhook")
	if cfg.Development() || cfg.DisableWebhookValidation {
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.Twilio.AuthToken), whatsapp.HandleWebhook)
	}

	// Development-only driver for the dialogue, no Twilio required.
	if cfg.Development() {
		app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)
	}
}
