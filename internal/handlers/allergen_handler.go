package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/middleware"
	"github.com/safebite/safebite-backend/internal/services"
)

type AllergenHandler struct {
	allergens *services.AllergenService
}

func NewAllergenHandler(allergens *services.AllergenService) *AllergenHandler {
	return &AllergenHandler{allergens: allergens}
}

// Catalog lists the seeded allergen dictionary. Public within the
// authenticated surface; no per-user data.
func (h *AllergenHandler) Catalog(c *fiber.Ctx) error {
	catalog, err := h.allergens.Catalog()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to load allergens"})
	}
	return c.JSON(fiber.Map{"data": catalog})
}

func (h *AllergenHandler) Mine(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	list, err := h.allergens.UserAllergens(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to load your allergens"})
	}
	return c.JSON(fiber.Map{"data": list})
}

func (h *AllergenHandler) Replace(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var req dto.ReplaceAllergensRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	for i := range req.Allergens {
		if strings.TrimSpace(req.Allergens[i].Name) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Allergen names must not be empty"})
		}
	}

	list, err := h.allergens.Replace(userID, &req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to update allergens"})
	}
	return c.JSON(fiber.Map{"data": list})
}
