package dto

import (
	"time"

	"github.com/google/uuid"
)

// Scan endpoints speak camelCase, matching the mobile client contract.

type ScanLimitResponse struct {
	UserID          uuid.UUID `json:"userId"`
	CurrentUsage    int       `json:"currentUsage"`
	DailyLimit      int       `json:"dailyLimit"`
	RemainingScans  int       `json:"remainingScans"`
	IsLimitExceeded bool      `json:"isLimitExceeded"`
	CanScan         bool      `json:"canScan"`
}

type ImageScanRequest struct {
	ImageURL  string     `json:"imageUrl"`
	ProductID *uuid.UUID `json:"productId,omitempty"`
}

type ListPreferenceRequest struct {
	ProductID uuid.UUID `json:"productId"`
	ListType  *string   `json:"listType,omitempty"`
}

type ProductResponse struct {
	ID               uuid.UUID `json:"id"`
	Barcode          string    `json:"barcode"`
	Name             string    `json:"name"`
	Brand            string    `json:"brand,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	Ingredients      string    `json:"ingredients,omitempty"`
	NutritionalScore *float64  `json:"nutritionalScore,omitempty"`
}

type ScanResultResponse struct {
	ID               uuid.UUID         `json:"id"`
	UserID           uuid.UUID         `json:"userId"`
	ProductID        uuid.UUID         `json:"productId"`
	ScanDate         time.Time         `json:"scanDate"`
	RiskLevel        string            `json:"riskLevel"`
	RiskExplanation  string            `json:"riskExplanation"`
	MatchedAllergens *string           `json:"matchedAllergens"`
	IsSaved          bool              `json:"isSaved"`
	Product          ProductResponse   `json:"product"`
	ScanLimit        ScanLimitResponse `json:"scanLimit"`
}

type ScanHistoryItem struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"productId"`
	ScanDate         time.Time       `json:"scanDate"`
	RiskLevel        string          `json:"riskLevel"`
	RiskExplanation  string          `json:"riskExplanation"`
	MatchedAllergens *string         `json:"matchedAllergens"`
	IsSaved          bool            `json:"isSaved"`
	ListType         *string         `json:"listType,omitempty"`
	Product          ProductResponse `json:"product"`
}

type ScanHistoryResponse struct {
	Data       []ScanHistoryItem `json:"data"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
	TotalCount int64             `json:"totalCount"`
}
