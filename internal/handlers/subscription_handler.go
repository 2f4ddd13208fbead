package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/middleware"
	"github.com/safebite/safebite-backend/internal/models"
	"github.com/safebite/safebite-backend/internal/services"
)

type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	plans, err := h.subscriptions.Plans()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to load plans"})
	}

	out := make([]dto.TierPlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, tierPlanResponse(&plans[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var req dto.SubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	sub, err := h.subscriptions.Subscribe(userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPlanNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Tier plan not found"})
		case errors.Is(err, services.ErrPlanInactive):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Tier plan is not available"})
		case errors.Is(err, services.ErrInvalidDuration):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "duration_days must be at least 1"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Subscription failed"})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (h *SubscriptionHandler) Current(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	sub, err := h.subscriptions.Current(userID)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSub) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "No active subscription"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to load subscription"})
	}
	return c.JSON(sub)
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	if err := h.subscriptions.Cancel(userID); err != nil {
		if errors.Is(err, services.ErrNoActiveSub) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "No active subscription"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to cancel subscription"})
	}
	return c.JSON(dto.MessageResponse{Message: "Subscription cancelled"})
}

func tierPlanResponse(plan *models.TierPlan) dto.TierPlanResponse {
	return dto.TierPlanResponse{
		ID:                plan.ID,
		Name:              plan.Name,
		ScanCountLimit:    plan.ScanCountLimit,
		SavedProductLimit: plan.SavedProductLimit,
		PriceCents:        plan.PriceCents,
		IsActive:          plan.IsActive,
	}
}
