package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/models"
	"gorm.io/gorm"
)

type AllergenService struct {
	db *gorm.DB
}

func NewAllergenService(db *gorm.DB) *AllergenService {
	return &AllergenService{db: db}
}

// Catalog returns the global allergen list, base entries first.
func (s *AllergenService) Catalog() ([]models.Allergen, error) {
	var allergens []models.Allergen
	err := s.db.Order("is_custom ASC, name ASC").Find(&allergens).Error
	return allergens, err
}

func (s *AllergenService) UserAllergens(userID uuid.UUID) ([]dto.UserAllergenResponse, error) {
	var links []models.UserAllergen
	if err := s.db.Preload("Allergen").Where("user_id = ?", userID).Order("created_at ASC").Find(&links).Error; err != nil {
		return nil, err
	}

	result := make([]dto.UserAllergenResponse, 0, len(links))
	for _, link := range links {
		result = append(result, dto.UserAllergenResponse{
			AllergenID:    link.AllergenID,
			Name:          link.Allergen.Name,
			SecurityLevel: link.SecurityLevel,
			IsCustom:      link.Allergen.IsCustom,
		})
	}
	return result, nil
}

// Replace swaps the user's entire allergen set in one transaction:
// delete all links, upsert allergens by name, recreate links.
func (s *AllergenService) Replace(userID uuid.UUID, req *dto.ReplaceAllergensRequest) ([]dto.UserAllergenResponse, error) {
	for _, input := range req.Allergens {
		if strings.TrimSpace(input.Name) == "" {
			return nil, errors.New("allergen name cannot be empty")
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserAllergen{}).Error; err != nil {
			return err
		}

		for _, input := range req.Allergens {
			name := strings.TrimSpace(input.Name)

			var allergen models.Allergen
			if err := tx.Where("name = ?", name).First(&allergen).Error; err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
				allergen = models.Allergen{ID: uuid.New(), Name: name, IsCustom: input.IsCustom}
				if err := tx.Create(&allergen).Error; err != nil {
					return err
				}
			}

			level := input.SecurityLevel
			if level == "" {
				level = "MEDIUM"
			}
			link := models.UserAllergen{
				ID:            uuid.New(),
				UserID:        userID,
				AllergenID:    allergen.ID,
				SecurityLevel: level,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.UserAllergens(userID)
}

// Names returns the allergen names the classifier consumes, in link order.
func (s *AllergenService) Names(userID uuid.UUID) ([]string, error) {
	var names []string
	err := s.db.Model(&models.UserAllergen{}).
		Joins("JOIN allergens ON allergens.id = user_allergens.allergen_id").
		Where("user_allergens.user_id = ?", userID).
		Order("user_allergens.created_at ASC").
		Pluck("allergens.name", &names).Error
	return names, err
}
