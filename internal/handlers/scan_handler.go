package handlers

import (
	"errors"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/cloudinary"
	"github.com/safebite/safebite-backend/internal/config"
	"github.com/safebite/safebite-backend/internal/dto"
	"github.com/safebite/safebite-backend/internal/middleware"
	"github.com/safebite/safebite-backend/internal/models"
	"github.com/safebite/safebite-backend/internal/scan"
	"github.com/safebite/safebite-backend/internal/services"
)

var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

type ScanHandler struct {
	orchestrator *scan.Orchestrator
	quota        *scan.QuotaTracker
	scans        *services.ScanService
	uploader     *cloudinary.Uploader
	cfg          *config.Config
}

func NewScanHandler(orchestrator *scan.Orchestrator, quota *scan.QuotaTracker, scans *services.ScanService, uploader *cloudinary.Uploader, cfg *config.Config) *ScanHandler {
	return &ScanHandler{
		orchestrator: orchestrator,
		quota:        quota,
		scans:        scans,
		uploader:     uploader,
		cfg:          cfg,
	}
}

func (h *ScanHandler) GetLimit(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	status, err := h.quota.Status(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to check scan limit"})
	}

	return c.JSON(scanLimitResponse(status))
}

func (h *ScanHandler) ScanBarcode(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	barcode := c.Params("barcode")
	if !barcodePattern.MatchString(barcode) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Barcode must be 8-14 digits"})
	}

	result, err := h.orchestrator.ScanBarcode(userID, barcode)
	if err != nil {
		return h.scanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(scanResultResponse(result))
}

func (h *ScanHandler) ScanImage(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var req dto.ImageScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	if req.ProductID == nil {
		parsed, err := url.ParseRequestURI(req.ImageURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "imageUrl must be a valid http(s) URL"})
		}
	}

	result, err := h.orchestrator.ScanImage(userID, req.ImageURL, req.ProductID)
	if err != nil {
		return h.scanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(scanResultResponse(result))
}

func (h *ScanHandler) ScanUpload(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Image file is required"})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Only image uploads are supported"})
	}
	if file.Size > 4*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Image too large. Maximum 4MB."})
	}

	if !h.uploader.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: true, Message: "Image uploads are not configured"})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read image"})
	}
	defer f.Close()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to read image data"})
	}

	uploaded, err := h.uploader.UploadImage(fileBytes, file.Filename, "scans")
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: true, Message: "Image upload failed"})
	}

	result, err := h.orchestrator.ScanUpload(userID, uploaded.SecureURL, c.FormValue("productName"))
	if err != nil {
		return h.scanError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(scanResultResponse(result))
}

func (h *ScanHandler) ToggleSave(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	scanID, err := uuid.Parse(c.Params("scanId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid scan ID"})
	}

	record, err := h.scans.ToggleSave(userID, scanID)
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrScanNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Scan not found"})
		case errors.Is(err, services.ErrSavedLimitReached):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: true, Message: "Saved product limit reached for your current plan"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to update scan"})
		}
	}

	return c.JSON(fiber.Map{"id": record.ID, "isSaved": record.IsSaved})
}

func (h *ScanHandler) History(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	filter := services.HistoryFilter{
		Limit:           limit,
		Offset:          offset,
		SavedOnly:       c.QueryBool("savedOnly"),
		UniqueByProduct: c.QueryBool("uniqueByProduct"),
		ListType:        c.Query("listType"),
	}

	scans, total, err := h.scans.History(userID, filter)
	if err != nil {
		if errors.Is(err, services.ErrInvalidListType) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch scan history"})
	}

	prefs, err := h.scans.Preferences(userID)
	if err != nil {
		prefs = map[uuid.UUID]string{}
	}

	items := make([]dto.ScanHistoryItem, 0, len(scans))
	for i := range scans {
		item := dto.ScanHistoryItem{
			ID:               scans[i].ID,
			ProductID:        scans[i].ProductID,
			ScanDate:         scans[i].ScanDate,
			RiskLevel:        scans[i].RiskLevel,
			RiskExplanation:  scans[i].RiskExplanation,
			MatchedAllergens: scans[i].MatchedAllergens,
			IsSaved:          scans[i].IsSaved,
			Product:          productResponse(&scans[i].Product),
		}
		if listType, ok := prefs[scans[i].ProductID]; ok {
			item.ListType = &listType
		}
		items = append(items, item)
	}

	return c.JSON(dto.ScanHistoryResponse{
		Data:       items,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
		TotalCount: total,
	})
}

func (h *ScanHandler) SetListPreference(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var req dto.ListPreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}
	if req.ProductID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "productId is required"})
	}

	if err := h.scans.SetListPreference(userID, req.ProductID, req.ListType); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidListType):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
		case errors.Is(err, scan.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Product not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to update preference"})
		}
	}

	return c.JSON(dto.MessageResponse{Message: "Preference updated"})
}

// ResetLimit deletes today's usage row. Disabled in production.
func (h *ScanHandler) ResetLimit(c *fiber.Ctx) error {
	if h.cfg.IsProduction() {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: true, Message: "Not available in production"})
	}

	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	if err := h.quota.ResetUsage(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to reset usage"})
	}
	return c.JSON(dto.MessageResponse{Message: "Daily usage reset"})
}

// scanError maps orchestrator failures onto the client contract. Quota
// exhaustion deliberately rides the generic 500 path with its message
// intact; the mobile client matches on the message text.
func (h *ScanHandler) scanError(c *fiber.Ctx, err error) error {
	var quotaErr *scan.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: quotaErr.Error()})
	case errors.Is(err, scan.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Product not found"})
	case errors.Is(err, scan.ErrUpstreamTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Error: true, Message: "Product database request timed out"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to complete scan"})
	}
}

func scanLimitResponse(status *scan.QuotaStatus) dto.ScanLimitResponse {
	return dto.ScanLimitResponse{
		UserID:          status.UserID,
		CurrentUsage:    status.CurrentUsage,
		DailyLimit:      status.DailyLimit,
		RemainingScans:  status.RemainingScans,
		IsLimitExceeded: status.IsLimitExceeded,
		CanScan:         !status.IsLimitExceeded,
	}
}

func scanResultResponse(result *scan.Result) dto.ScanResultResponse {
	return dto.ScanResultResponse{
		ID:               result.Scan.ID,
		UserID:           result.Scan.UserID,
		ProductID:        result.Scan.ProductID,
		ScanDate:         result.Scan.ScanDate,
		RiskLevel:        result.Scan.RiskLevel,
		RiskExplanation:  result.Scan.RiskExplanation,
		MatchedAllergens: result.Scan.MatchedAllergens,
		IsSaved:          result.Scan.IsSaved,
		Product:          productResponse(result.Product),
		ScanLimit:        scanLimitResponse(result.Quota),
	}
}

func productResponse(product *models.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:               product.ID,
		Barcode:          product.Barcode,
		Name:             product.Name,
		Brand:            product.Brand,
		ImageURL:         product.ImageURL,
		Ingredients:      product.Ingredients,
		NutritionalScore: product.NutritionalScore,
	}
}
