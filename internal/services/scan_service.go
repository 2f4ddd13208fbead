package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/models"
	"github.com/safebite/safebite-backend/internal/scan"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidListType   = errors.New("list type must be RED or GREEN")
	ErrSavedLimitReached = errors.New("saved product limit reached for your current plan")
)

// HistoryFilter mirrors the /scans/history query parameters.
type HistoryFilter struct {
	Limit           int
	Offset          int
	SavedOnly       bool
	UniqueByProduct bool
	ListType        string
}

// ScanService is the GORM side of the scan core: it implements
// scan.QuotaStore and scan.ScanStore, and owns the history, save-toggle and
// list-preference operations.
type ScanService struct {
	db                *gorm.DB
	allergens         *AllergenService
	defaultSavedLimit int
}

func NewScanService(db *gorm.DB, allergens *AllergenService, defaultSavedLimit int) *ScanService {
	return &ScanService{db: db, allergens: allergens, defaultSavedLimit: defaultSavedLimit}
}

// --- scan.QuotaStore ---

func (s *ScanService) DailyLimit(userID uuid.UUID) (int, bool, error) {
	var sub models.Subscription
	err := s.db.Preload("TierPlan").
		Where("user_id = ? AND status = ? AND end_date > ?", userID, models.SubscriptionActive, time.Now()).
		Order("end_date DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return sub.TierPlan.ScanCountLimit, true, nil
}

func (s *ScanService) ScanCount(userID uuid.UUID, day time.Time) (int, error) {
	var usage models.DailyScanUsage
	err := s.db.Where("user_id = ? AND usage_date = ?", userID, day).First(&usage).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return usage.ScanCount, nil
}

// Increment upserts the day's row; the conflict update is atomic for the
// single row, so concurrent increments never lose counts.
func (s *ScanService) Increment(userID uuid.UUID, day time.Time) error {
	usage := models.DailyScanUsage{
		ID:        uuid.New(),
		UserID:    userID,
		UsageDate: day,
		ScanCount: 1,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"scan_count": gorm.Expr("daily_scan_usages.scan_count + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&usage).Error
}

func (s *ScanService) Reset(userID uuid.UUID, day time.Time) error {
	return s.db.Where("user_id = ? AND usage_date = ?", userID, day).Delete(&models.DailyScanUsage{}).Error
}

// --- scan.ScanStore ---

func (s *ScanService) AllergenNames(userID uuid.UUID) ([]string, error) {
	return s.allergens.Names(userID)
}

func (s *ScanService) CreateScan(record *models.ProductScan) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return s.db.Create(record).Error
}

// --- history, bookmarks, list preferences ---

func (s *ScanService) History(userID uuid.UUID, filter HistoryFilter) ([]models.ProductScan, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := s.db.Model(&models.ProductScan{}).Where("product_scans.user_id = ?", userID)

	if filter.SavedOnly {
		query = query.Where("product_scans.is_saved = true")
	}
	if filter.ListType != "" {
		if filter.ListType != "RED" && filter.ListType != "GREEN" {
			return nil, 0, ErrInvalidListType
		}
		query = query.Joins(
			"JOIN user_product_preferences upp ON upp.product_id = product_scans.product_id AND upp.user_id = product_scans.user_id",
		).Where("upp.list_type = ?", filter.ListType)
	}
	if filter.UniqueByProduct {
		query = query.Distinct("ON (product_scans.product_id) product_scans.*").
			Order("product_scans.product_id, product_scans.scan_date DESC")
	} else {
		query = query.Order("product_scans.scan_date DESC")
	}

	var total int64
	countQuery := query.Session(&gorm.Session{})
	if filter.UniqueByProduct {
		if err := countQuery.Distinct("product_scans.product_id").Count(&total).Error; err != nil {
			return nil, 0, err
		}
	} else {
		if err := countQuery.Count(&total).Error; err != nil {
			return nil, 0, err
		}
	}

	var scans []models.ProductScan
	err := query.Preload("Product").Limit(filter.Limit).Offset(filter.Offset).Find(&scans).Error
	if err != nil {
		return nil, 0, err
	}
	return scans, total, nil
}

// ToggleSave flips is_saved on a scan the user owns. A scan belonging to
// someone else reports not-found, never a silent no-op.
func (s *ScanService) ToggleSave(userID, scanID uuid.UUID) (*models.ProductScan, error) {
	var record models.ProductScan
	if err := s.db.Preload("Product").Where("id = ? AND user_id = ?", scanID, userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, scan.ErrScanNotFound
		}
		return nil, err
	}

	if !record.IsSaved {
		limit, err := s.savedProductLimit(userID)
		if err != nil {
			return nil, err
		}
		count, err := s.SavedCount(userID)
		if err != nil {
			return nil, err
		}
		if count >= int64(limit) {
			return nil, ErrSavedLimitReached
		}
	}

	record.IsSaved = !record.IsSaved
	if err := s.db.Model(&models.ProductScan{}).Where("id = ?", record.ID).Update("is_saved", record.IsSaved).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// SetListPreference upserts the user's RED/GREEN classification; a nil list
// type removes the preference row.
func (s *ScanService) SetListPreference(userID, productID uuid.UUID, listType *string) error {
	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scan.ErrProductNotFound
		}
		return err
	}

	if listType == nil {
		return s.db.Where("user_id = ? AND product_id = ?", userID, productID).
			Delete(&models.UserProductPreference{}).Error
	}

	if *listType != "RED" && *listType != "GREEN" {
		return ErrInvalidListType
	}

	pref := models.UserProductPreference{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		ListType:  *listType,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"list_type":  *listType,
			"updated_at": time.Now(),
		}),
	}).Create(&pref).Error
}

// Preferences returns the user's list classifications keyed by product id.
func (s *ScanService) Preferences(userID uuid.UUID) (map[uuid.UUID]string, error) {
	var prefs []models.UserProductPreference
	if err := s.db.Where("user_id = ?", userID).Find(&prefs).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]string, len(prefs))
	for _, p := range prefs {
		result[p.ProductID] = p.ListType
	}
	return result, nil
}

// savedProductLimit resolves the active plan's saved_product_limit, falling
// back to the configured default for unsubscribed users.
func (s *ScanService) savedProductLimit(userID uuid.UUID) (int, error) {
	var sub models.Subscription
	err := s.db.Preload("TierPlan").
		Where("user_id = ? AND status = ? AND end_date > ?", userID, models.SubscriptionActive, time.Now()).
		Order("end_date DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.defaultSavedLimit, nil
	}
	if err != nil {
		return 0, err
	}
	return sub.TierPlan.SavedProductLimit, nil
}

// SavedCount supports the tier saved_product_limit check.
func (s *ScanService) SavedCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.ProductScan{}).
		Where("user_id = ? AND is_saved = true", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count saved scans: %w", err)
	}
	return count, nil
}
