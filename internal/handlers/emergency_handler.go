package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/middleware"
	"github.com/safebite/safebite-backend/internal/services"
)

type EmergencyHandler struct {
	contacts *services.EmergencyService
}

func NewEmergencyHandler(contacts *services.EmergencyService) *EmergencyHandler {
	return &EmergencyHandler{contacts: contacts}
}

func (h *EmergencyHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	contact, err := h.contacts.Get(userID)
	if err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Emergency contact not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to load emergency contact"})
	}
	return c.JSON(contact)
}

func (h *EmergencyHandler) Upsert(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var req dto.EmergencyContactRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.PhoneNumber) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Name and phone number are required"})
	}

	contact, err := h.contacts.Upsert(userID, &req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to save emergency contact"})
	}
	return c.JSON(contact)
}

func (h *EmergencyHandler) Delete(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	if err := h.contacts.Delete(userID); err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Emergency contact not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to delete emergency contact"})
	}
	return c.JSON(dto.MessageResponse{Message: "Emergency contact deleted"})
}
