package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the root aggregate: allergen preferences, scans, subscriptions and
// the emergency contact all hang off it. Users are never hard-deleted; admin
// deletion anonymizes the email and clears the verified flag.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email      string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password   string         `gorm:"not null" json:"-"`
	FullName   string         `gorm:"size:255" json:"full_name"`
	Role       string         `gorm:"size:20;default:'user'" json:"role"`
	IsVerified bool           `gorm:"default:false" json:"is_verified"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
