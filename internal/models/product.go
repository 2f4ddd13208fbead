package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a shared catalog entry keyed by barcode. Image-only and
// name-only scans mint synthetic IMG_/NAME_ barcodes so the unique key
// still holds. Products are created lazily on first scan and never deleted.
type Product struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Barcode          string    `gorm:"not null;size:100;uniqueIndex" json:"barcode"`
	Name             string    `gorm:"not null;size:255" json:"name"`
	Brand            string    `gorm:"size:255" json:"brand"`
	ImageURL         string    `gorm:"type:text" json:"image_url"`
	Ingredients      string    `gorm:"type:text" json:"ingredients"`
	NutritionalScore *float64  `json:"nutritional_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
