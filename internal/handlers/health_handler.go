package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/safebite/safebite-backend/internal/database"
	"github.com/safebite/safebite-backend/internal/dto"
)

func Health(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "up",
	}
	if err := database.Ping(); err != nil {
		resp.Status = "degraded"
		resp.DB = "down"
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
