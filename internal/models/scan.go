package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductScan records one risk evaluation. Immutable after creation except
// for the is_saved bookmark toggle.
type ProductScan struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ScanDate         time.Time `gorm:"not null;index" json:"scan_date"`
	RiskLevel        string    `gorm:"size:20;not null" json:"risk_level"`
	RiskExplanation  string    `gorm:"type:text" json:"risk_explanation"`
	MatchedAllergens *string   `gorm:"type:text" json:"matched_allergens"`
	IsSaved          bool      `gorm:"default:false" json:"is_saved"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	Product          Product   `gorm:"foreignKey:ProductID" json:"product"`
}

// DailyScanUsage holds one row per user per calendar day. UsageDate is the
// UTC instant of local midnight in the configured quota timezone, never
// midnight UTC, so the unique pair gives the day-boundary semantics.
type DailyScanUsage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_user_day" json:"user_id"`
	UsageDate time.Time `gorm:"not null;uniqueIndex:idx_usage_user_day" json:"usage_date"`
	ScanCount int       `gorm:"not null;default:0" json:"scan_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProductPreference is the user's RED/GREEN classification of a product,
// distinct from the is_saved bookmark. Upsert semantics, deleted when the
// caller omits the list type.
type UserProductPreference struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_product_pref" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_product_pref" json:"product_id"`
	ListType  string    `gorm:"size:10;not null" json:"list_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
