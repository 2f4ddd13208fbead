package dto

import (
	"time"

	"github.com/google/uuid"
)

type SubscribeRequest struct {
	TierPlanID   uuid.UUID `json:"tier_plan_id"`
	DurationDays int       `json:"duration_days"`
}

type SubscriptionResponse struct {
	ID        uuid.UUID        `json:"id"`
	Status    string           `json:"status"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	TierPlan  TierPlanResponse `json:"tier_plan"`
}

type TierPlanResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	ScanCountLimit    int       `json:"scan_count_limit"`
	SavedProductLimit int       `json:"saved_product_limit"`
	PriceCents        int       `json:"price_cents"`
	IsActive          bool      `json:"is_active"`
}
