package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler creates a health handler. ping may be nil when there is no
// database to check.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// Check returns the health status of the service.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	statusCode := fiber.StatusOK
	database := true

	if h.ping != nil {
		if err := h.ping(c.UserContext()); err != nil {
			status = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
			database = false
		}
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status": status,
		"services": fiber.Map{
			"database": database,
		},
	})
}
