package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUpstreamTimeout = errors.New("product database request timed out")
	ErrScanNotFound    = errors.New("scan not found")
)

// QuotaExceededError carries the limit in effect so handlers can render it.
type QuotaExceededError struct {
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Daily scan limit exceeded. You have used %d scans today.", e.Used)
}

// ProductResolver returns canonical product records, creating them lazily.
type ProductResolver interface {
	ByBarcode(barcode string) (*models.Product, error)
	ByID(id uuid.UUID) (*models.Product, error)
	MintFromImage(imageURL string) (*models.Product, error)
	MintFromName(name, imageURL string) (*models.Product, error)
}

// ScanStore persists scan rows and exposes the caller's allergen list.
type ScanStore interface {
	AllergenNames(userID uuid.UUID) ([]string, error)
	CreateScan(s *models.ProductScan) error
}

// Result is the unified scan outcome, including a post-scan quota snapshot.
type Result struct {
	Scan    *models.ProductScan
	Product *models.Product
	Quota   *QuotaStatus
}

// Orchestrator runs the per-request scan sequence: quota check, product
// resolve, risk classify, persist, quota increment. Stateless across
// requests; all state lives in persisted rows.
type Orchestrator struct {
	quota      *QuotaTracker
	products   ProductResolver
	classifier Classifier
	store      ScanStore

	// fixedAllergens, when set, replaces the user's stored allergen list.
	// Test fixture knob, wired from configuration.
	fixedAllergens []string

	fallback *DeterministicClassifier
	now      func() time.Time
}

func NewOrchestrator(quota *QuotaTracker, products ProductResolver, classifier Classifier, store ScanStore, fixedAllergens []string) *Orchestrator {
	return &Orchestrator{
		quota:          quota,
		products:       products,
		classifier:     classifier,
		store:          store,
		fixedAllergens: fixedAllergens,
		fallback:       NewDeterministicClassifier(),
		now:            time.Now,
	}
}

func (o *Orchestrator) ScanBarcode(userID uuid.UUID, barcode string) (*Result, error) {
	return o.run(userID, func() (*models.Product, error) {
		return o.products.ByBarcode(barcode)
	})
}

// ScanImage evaluates an already-hosted image. When productID is non-nil the
// existing product is reused instead of minting a synthetic one.
func (o *Orchestrator) ScanImage(userID uuid.UUID, imageURL string, productID *uuid.UUID) (*Result, error) {
	return o.run(userID, func() (*models.Product, error) {
		if productID != nil {
			return o.products.ByID(*productID)
		}
		return o.products.MintFromImage(imageURL)
	})
}

// ScanUpload evaluates a freshly uploaded image, optionally named by the user.
func (o *Orchestrator) ScanUpload(userID uuid.UUID, imageURL, productName string) (*Result, error) {
	return o.run(userID, func() (*models.Product, error) {
		if strings.TrimSpace(productName) != "" {
			return o.products.MintFromName(productName, imageURL)
		}
		return o.products.MintFromImage(imageURL)
	})
}

func (o *Orchestrator) run(userID uuid.UUID, resolve func() (*models.Product, error)) (*Result, error) {
	canScan, status := o.quota.CanScanToday(userID)
	if !canScan {
		return nil, &QuotaExceededError{Used: status.CurrentUsage, Limit: status.DailyLimit}
	}

	product, err := resolve()
	if err != nil {
		return nil, err
	}

	allergens, err := o.allergensFor(userID)
	if err != nil {
		return nil, err
	}

	verdict := o.classify(product, allergens)

	record := &models.ProductScan{
		UserID:          userID,
		ProductID:       product.ID,
		ScanDate:        o.now().UTC(),
		RiskLevel:       verdict.RiskLevel,
		RiskExplanation: verdict.Reasoning,
		IsSaved:         false,
	}
	if len(verdict.MatchedAllergens) > 0 {
		joined := strings.Join(verdict.MatchedAllergens, ",")
		record.MatchedAllergens = &joined
	}

	if err := o.store.CreateScan(record); err != nil {
		return nil, fmt.Errorf("failed to persist scan: %w", err)
	}

	// Best effort from here on: the scan already happened, so an increment
	// failure is logged and the result still returned.
	if err := o.quota.IncrementUsage(userID); err != nil {
		slog.Error("failed to increment scan usage after persisted scan", "user_id", userID, "error", err)
	}

	fresh, err := o.quota.Status(userID)
	if err != nil {
		slog.Warn("failed to refresh quota snapshot", "user_id", userID, "error", err)
		status.CurrentUsage++
		if status.RemainingScans > 0 {
			status.RemainingScans--
		}
		status.IsLimitExceeded = status.CurrentUsage >= status.DailyLimit
		fresh = status
	}

	return &Result{Scan: record, Product: product, Quota: fresh}, nil
}

func (o *Orchestrator) allergensFor(userID uuid.UUID) ([]string, error) {
	if len(o.fixedAllergens) > 0 {
		return o.fixedAllergens, nil
	}
	return o.store.AllergenNames(userID)
}

// classify never fails the scan: model errors already degrade inside the
// model classifier, and anything left degrades to the deterministic
// strategy here.
func (o *Orchestrator) classify(product *models.Product, allergens []string) *Verdict {
	pctx := &ProductContext{ProductName: product.Name, Brand: product.Brand}

	if strings.TrimSpace(product.Ingredients) == "" {
		if product.ImageURL != "" {
			if verdict, err := o.classifier.ClassifyImage(product.ImageURL, allergens); err == nil {
				return verdict
			}
			verdict, _ := o.fallback.ClassifyImage(product.ImageURL, allergens)
			return verdict
		}
		return &Verdict{
			RiskLevel:        RiskCaution,
			MatchedAllergens: []string{},
			Reasoning:        "No ingredient information is available for this product, so its allergen risk could not be assessed.",
		}
	}

	if verdict, err := o.classifier.ClassifyProduct(product.Ingredients, allergens, pctx); err == nil {
		return verdict
	}

	verdict, err := o.fallback.ClassifyProduct(product.Ingredients, allergens, pctx)
	if err != nil {
		return &Verdict{
			RiskLevel:        RiskCaution,
			MatchedAllergens: []string{},
			Reasoning:        "Allergen classification was unavailable for this scan. Check the label manually.",
		}
	}
	return verdict
}
