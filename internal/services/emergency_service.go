package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrContactNotFound = errors.New("emergency contact not found")

type EmergencyService struct {
	db *gorm.DB
}

func NewEmergencyService(db *gorm.DB) *EmergencyService {
	return &EmergencyService{db: db}
}

func (s *EmergencyService) Get(userID uuid.UUID) (*models.EmergencyContact, error) {
	var contact models.EmergencyContact
	if err := s.db.Where("user_id = ?", userID).First(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}
	return &contact, nil
}

// Upsert creates or replaces the user's single contact.
func (s *EmergencyService) Upsert(userID uuid.UUID, req *dto.EmergencyContactRequest) (*models.EmergencyContact, error) {
	contact := models.EmergencyContact{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         req.Name,
		PhoneNumber:  req.PhoneNumber,
		Relationship: req.Relationship,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":         req.Name,
			"phone_number": req.PhoneNumber,
			"relationship": req.Relationship,
			"updated_at":   time.Now(),
		}),
	}).Create(&contact).Error
	if err != nil {
		return nil, err
	}
	return s.Get(userID)
}

func (s *EmergencyService) Delete(userID uuid.UUID) error {
	result := s.db.Where("user_id = ?", userID).Delete(&models.EmergencyContact{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrContactNotFound
	}
	return nil
}
