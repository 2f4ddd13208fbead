package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/models"
	"gorm.io/gorm"
)

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) ListUsers(page, pageSize int) (*dto.UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var users []models.User
	err := s.db.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return &dto.UserListResponse{Data: items, Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// DeleteUser anonymizes instead of removing the row: scans, usage rows and
// subscriptions keep their foreign keys, but the account is unusable.
func (s *AdminService) DeleteUser(userID uuid.UUID) error {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	anonymized := fmt.Sprintf("deleted_%s@anonymized.local", userID)
	return s.db.Model(&user).Updates(map[string]interface{}{
		"email":       anonymized,
		"full_name":   "Deleted User",
		"is_verified": false,
		"updated_at":  time.Now(),
	}).Error
}

func (s *AdminService) UpdateRole(userID uuid.UUID, role string) error {
	if role != "user" && role != "admin" {
		return errors.New("role must be user or admin")
	}
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// --- tier plan management ---

func (s *AdminService) CreateTierPlan(req *dto.TierPlanRequest) (*models.TierPlan, error) {
	if req.Name == "" || req.ScanCountLimit <= 0 {
		return nil, errors.New("name and a positive scan_count_limit are required")
	}
	plan := models.TierPlan{
		ID:                uuid.New(),
		Name:              req.Name,
		ScanCountLimit:    req.ScanCountLimit,
		SavedProductLimit: req.SavedProductLimit,
		PriceCents:        req.PriceCents,
		IsActive:          true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := s.db.Create(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *AdminService) UpdateTierPlan(planID uuid.UUID, req *dto.TierPlanRequest) (*models.TierPlan, error) {
	var plan models.TierPlan
	if err := s.db.First(&plan, "id = ?", planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.ScanCountLimit > 0 {
		updates["scan_count_limit"] = req.ScanCountLimit
	}
	if req.SavedProductLimit > 0 {
		updates["saved_product_limit"] = req.SavedProductLimit
	}
	if req.PriceCents >= 0 {
		updates["price_cents"] = req.PriceCents
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.db.Model(&plan).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *AdminService) ListTierPlans() ([]models.TierPlan, error) {
	var plans []models.TierPlan
	err := s.db.Order("price_cents ASC").Find(&plans).Error
	return plans, err
}

// ListLogs queries the system_logs table the PG slog handler writes to.
func (s *AdminService) ListLogs(level string, limit int) ([]models.SystemLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	query := s.db.Order("timestamp DESC").Limit(limit)
	if level != "" {
		query = query.Where("level = ?", level)
	}
	var logs []models.SystemLog
	err := query.Find(&logs).Error
	return logs, err
}
