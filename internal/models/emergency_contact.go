package models

import (
	"time"

	"github.com/google/uuid"
)

// EmergencyContact is the single contact a user designates for allergy
// emergencies. One row per user.
type EmergencyContact struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name         string    `gorm:"not null;size:255" json:"name"`
	PhoneNumber  string    `gorm:"not null;size:50" json:"phone_number"`
	Relationship string    `gorm:"size:100" json:"relationship"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	User         User      `gorm:"foreignKey:UserID" json:"-"`
}
