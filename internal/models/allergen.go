package models

import (
	"time"

	"github.com/google/uuid"
)

// Allergen is a named substance category, shared across users. User-defined
// entries carry is_custom.
type Allergen struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:100;uniqueIndex" json:"name"`
	IsCustom  bool      `gorm:"default:false" json:"is_custom"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAllergen links a user to an allergen with the severity the user
// assigned. The set of linked allergen names is exactly what the risk
// classifier consumes.
type UserAllergen struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_allergen" json:"user_id"`
	AllergenID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_allergen" json:"allergen_id"`
	SecurityLevel string    `gorm:"size:20;default:'MEDIUM'" json:"security_level"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	User          User      `gorm:"foreignKey:UserID" json:"-"`
	Allergen      Allergen  `gorm:"foreignKey:AllergenID" json:"allergen"`
}
