package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/models"
	"github.com/safebite/safebite-backend/internal/openfoodfacts"
	"github.com/safebite/safebite-backend/internal/scan"
	"gorm.io/gorm"
)

// ProductService resolves canonical product records, implementing
// scan.ProductResolver. Barcode lookups hit the local cache first, then
// Open Food Facts; image and name scans mint synthetic-barcode products.
type ProductService struct {
	db  *gorm.DB
	off *openfoodfacts.Client
}

func NewProductService(db *gorm.DB, off *openfoodfacts.Client) *ProductService {
	return &ProductService{db: db, off: off}
}

func (s *ProductService) ByBarcode(barcode string) (*models.Product, error) {
	var cached models.Product
	err := s.db.Where("barcode = ?", barcode).First(&cached).Error
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	upstream, err := s.off.LookupBarcode(barcode)
	if err != nil {
		if errors.Is(err, openfoodfacts.ErrNotFound) {
			return nil, scan.ErrProductNotFound
		}
		if errors.Is(err, openfoodfacts.ErrTimeout) {
			return nil, scan.ErrUpstreamTimeout
		}
		return nil, err
	}

	product := models.Product{
		ID:               uuid.New(),
		Barcode:          barcode,
		Name:             upstream.Name,
		Brand:            upstream.Brand,
		ImageURL:         upstream.ImageURL,
		Ingredients:      upstream.Ingredients,
		NutritionalScore: upstream.NutritionalScore,
	}
	if err := s.db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to cache product: %w", err)
	}
	return &product, nil
}

func (s *ProductService) ByID(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, scan.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

// MintFromImage creates a placeholder product keyed by a synthetic IMG_
// barcode when the caller has only an image.
func (s *ProductService) MintFromImage(imageURL string) (*models.Product, error) {
	product := models.Product{
		ID:       uuid.New(),
		Barcode:  "IMG_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Name:     "Scanned Product",
		ImageURL: imageURL,
	}
	if err := s.db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// MintFromName creates a product keyed by a synthetic NAME_ barcode for
// uploads where the user supplied a product name.
func (s *ProductService) MintFromName(name, imageURL string) (*models.Product, error) {
	product := models.Product{
		ID:       uuid.New(),
		Barcode:  "NAME_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Name:     strings.TrimSpace(name),
		ImageURL: imageURL,
	}
	if err := s.db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}
