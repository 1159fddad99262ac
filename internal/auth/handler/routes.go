package handler

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, mw *AuthMiddleware) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/api/v1/register", h.Register)
	app.Post("/api/v1/verify-email", h.VerifyEmail)
	app.Post("/api/v1/resend-otp", h.ResendOtp)
	app.Post("/api/v1/login", h.Login)
	app.Post("/api/v1/verify-device", h.VerifyDevice)
	app.Post("/api/v1/refresh", h.Refresh)
	app.Delete("/api/v1/session", h.Logout)

	// Endpoints that need a live access token
	app.Get("/api/v1/sessions", mw.RequireAuth(), h.GetSessions)
	app.Delete("/api/v1/user/:id/sessions", mw.RequireAuth(), h.ForceLogout)
}
