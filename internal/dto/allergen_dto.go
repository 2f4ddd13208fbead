package dto

import "github.com/google/uuid"

type AllergenInput struct {
	Name          string `json:"name"`
	SecurityLevel string `json:"security_level"`
	IsCustom      bool   `json:"is_custom"`
}

// ReplaceAllergensRequest replaces the user's whole allergen set in one
// transaction.
type ReplaceAllergensRequest struct {
	Allergens []AllergenInput `json:"allergens"`
}

type UserAllergenResponse struct {
	AllergenID    uuid.UUID `json:"allergen_id"`
	Name          string    `json:"name"`
	SecurityLevel string    `json:"security_level"`
	IsCustom      bool      `json:"is_custom"`
}
