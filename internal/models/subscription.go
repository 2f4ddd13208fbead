package models

import (
	"time"

	"github.com/google/uuid"
)

// TierPlan is static reference data managed through the admin panel.
type TierPlan struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name              string    `gorm:"not null;size:50;uniqueIndex" json:"name"`
	ScanCountLimit    int       `gorm:"not null" json:"scan_count_limit"`
	SavedProductLimit int       `gorm:"not null" json:"saved_product_limit"`
	PriceCents        int       `gorm:"not null;default:0" json:"price_cents"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Subscription is a user's time-boxed assignment to a tier plan. At most one
// ACTIVE, non-expired subscription per user; enforced by deactivating the
// previous one before creating the next, not by a database constraint.
type Subscription struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	TierPlanID uuid.UUID `gorm:"type:uuid;not null" json:"tier_plan_id"`
	Status     string    `gorm:"not null;default:'ACTIVE';size:20" json:"status"`
	StartDate  time.Time `gorm:"not null" json:"start_date"`
	EndDate    time.Time `gorm:"not null" json:"end_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `gorm:"foreignKey:UserID" json:"-"`
	TierPlan   TierPlan  `gorm:"foreignKey:TierPlanID" json:"tier_plan"`
}

const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionCancelled = "CANCELLED"
)
