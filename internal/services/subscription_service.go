package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound    = errors.New("tier plan not found")
	ErrNoActiveSub     = errors.New("no active subscription")
	ErrPlanInactive    = errors.New("tier plan is not available")
	ErrInvalidDuration = errors.New("duration must be at least one day")
)

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

func (s *SubscriptionService) Plans() ([]models.TierPlan, error) {
	var plans []models.TierPlan
	err := s.db.Where("is_active = true").Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

// Subscribe assigns the user to a plan. The single-active invariant is kept
// by cancelling any current active subscription inside the same transaction
// that creates the new one.
func (s *SubscriptionService) Subscribe(userID uuid.UUID, req *dto.SubscribeRequest) (*dto.SubscriptionResponse, error) {
	if req.DurationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	var plan models.TierPlan
	if err := s.db.First(&plan, "id = ?", req.TierPlanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	now := time.Now()
	sub := models.Subscription{
		ID:         uuid.New(),
		UserID:     userID,
		TierPlanID: plan.ID,
		Status:     models.SubscriptionActive,
		StartDate:  now,
		EndDate:    now.AddDate(0, 0, req.DurationDays),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
			Update("status", models.SubscriptionCancelled).Error; err != nil {
			return err
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, err
	}

	return subscriptionResponse(&sub, &plan), nil
}

// Current returns the user's active, non-expired subscription. Rows whose
// end date has passed are lazily flipped to EXPIRED.
func (s *SubscriptionService) Current(userID uuid.UUID) (*dto.SubscriptionResponse, error) {
	var sub models.Subscription
	err := s.db.Preload("TierPlan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("end_date DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveSub
	}
	if err != nil {
		return nil, err
	}

	if time.Now().After(sub.EndDate) {
		s.db.Model(&sub).Update("status", models.SubscriptionExpired)
		return nil, ErrNoActiveSub
	}

	return subscriptionResponse(&sub, &sub.TierPlan), nil
}

func (s *SubscriptionService) Cancel(userID uuid.UUID) error {
	result := s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Update("status", models.SubscriptionCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoActiveSub
	}
	return nil
}

func subscriptionResponse(sub *models.Subscription, plan *models.TierPlan) *dto.SubscriptionResponse {
	return &dto.SubscriptionResponse{
		ID:        sub.ID,
		Status:    sub.Status,
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		TierPlan: dto.TierPlanResponse{
			ID:                plan.ID,
			Name:              plan.Name,
			ScanCountLimit:    plan.ScanCountLimit,
			SavedProductLimit: plan.SavedProductLimit,
			PriceCents:        plan.PriceCents,
			IsActive:          plan.IsActive,
		},
	}
}
