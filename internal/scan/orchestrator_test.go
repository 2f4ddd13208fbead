package scan

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/safebite/safebite-backend/internal/models"
)

type fakeResolver struct {
	product *models.Product
	err     error

	mintedFromImage string
	mintedName      string
}

func (f *fakeResolver) ByBarcode(barcode string) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeResolver) ByID(id uuid.UUID) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeResolver) MintFromImage(imageURL string) (*models.Product, error) {
	f.mintedFromImage = imageURL
	return f.product, f.err
}

func (f *fakeResolver) MintFromName(name, imageURL string) (*models.Product, error) {
	f.mintedName = name
	return f.product, f.err
}

type fakeScanStore struct {
	allergens []string
	created   []*models.ProductScan
	createErr error
}

func (f *fakeScanStore) AllergenNames(userID uuid.UUID) ([]string, error) {
	return f.allergens, nil
}

func (f *fakeScanStore) CreateScan(s *models.ProductScan) error {
	if f.createErr != nil {
		return f.createErr
	}
	s.ID = uuid.New()
	f.created = append(f.created, s)
	return nil
}

// failingClassifier simulates a model backend that is fully down.
type failingClassifier struct{}

func (failingClassifier) Classify(string, []string) (*Verdict, error) {
	return nil, errors.New("model unavailable")
}

func (failingClassifier) ClassifyProduct(string, []string, *ProductContext) (*Verdict, error) {
	return nil, errors.New("model unavailable")
}

func (failingClassifier) ClassifyImage(string, []string) (*Verdict, error) {
	return nil, errors.New("model unavailable")
}

func testProduct(ingredients, imageURL string) *models.Product {
	return &models.Product{
		ID:          uuid.New(),
		Barcode:     "4006381333931",
		Name:        "Choco Spread",
		Ingredients: ingredients,
		ImageURL:    imageURL,
	}
}

func newTestOrchestrator(t *testing.T, quotaStore QuotaStore, resolver ProductResolver, classifier Classifier, store ScanStore) *Orchestrator {
	t.Helper()
	tracker := newTestTracker(t, quotaStore, 100)
	return NewOrchestrator(tracker, resolver, classifier, store, nil)
}

func TestScanBarcodeHappyPath(t *testing.T) {
	userID := uuid.New()
	quotaStore := newFakeQuotaStore(10, true)
	store := &fakeScanStore{allergens: []string{"Hazelnut", "Milk"}}
	resolver := &fakeResolver{product: testProduct("sugar, hazelnuts, skimmed milk powder", "")}

	o := newTestOrchestrator(t, quotaStore, resolver, NewDeterministicClassifier(), store)

	result, err := o.ScanBarcode(userID, "4006381333931")
	if err != nil {
		t.Fatalf("ScanBarcode() error = %v", err)
	}

	if result.Scan.RiskLevel != RiskRisky {
		t.Fatalf("RiskLevel = %q, want %q", result.Scan.RiskLevel, RiskRisky)
	}
	if result.Scan.MatchedAllergens == nil || *result.Scan.MatchedAllergens != "Hazelnut,Milk" {
		t.Fatalf("MatchedAllergens = %v, want Hazelnut,Milk", result.Scan.MatchedAllergens)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d scan rows, want 1", len(store.created))
	}
	if quotaStore.increments != 1 {
		t.Fatalf("usage incremented %d times, want 1", quotaStore.increments)
	}
	if result.Quota.CurrentUsage != 1 || result.Quota.RemainingScans != 9 {
		t.Fatalf("unexpected quota snapshot %+v", result.Quota)
	}
}

func TestScanBarcodeQuotaExhausted(t *testing.T) {
	userID := uuid.New()
	quotaStore := newFakeQuotaStore(2, true)
	store := &fakeScanStore{allergens: []string{"Milk"}}
	resolver := &fakeResolver{product: testProduct("milk", "")}

	o := newTestOrchestrator(t, quotaStore, resolver, NewDeterministicClassifier(), store)

	for i := 0; i < 2; i++ {
		if _, err := o.ScanBarcode(userID, "4006381333931"); err != nil {
			t.Fatalf("scan %d error = %v", i+1, err)
		}
	}

	_, err := o.ScanBarcode(userID, "4006381333931")
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("third scan error = %v, want QuotaExceededError", err)
	}
	if quotaErr.Used != 2 {
		t.Fatalf("Used = %d, want 2", quotaErr.Used)
	}
	if !strings.Contains(quotaErr.Error(), "Daily scan limit exceeded. You have used 2 scans today.") {
		t.Fatalf("unexpected message %q", quotaErr.Error())
	}
	if len(store.created) != 2 {
		t.Fatalf("created %d scan rows, want 2 (rejected scan must not persist)", len(store.created))
	}
}

func TestScanSucceedsWhenIncrementFails(t *testing.T) {
	userID := uuid.New()
	quotaStore := newFakeQuotaStore(10, true)
	quotaStore.failBump = true
	store := &fakeScanStore{allergens: []string{"Milk"}}
	resolver := &fakeResolver{product: testProduct("water, sugar", "")}

	o := newTestOrchestrator(t, quotaStore, resolver, NewDeterministicClassifier(), store)

	result, err := o.ScanBarcode(userID, "4006381333931")
	if err != nil {
		t.Fatalf("ScanBarcode() error = %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d scan rows, want 1", len(store.created))
	}
	if result.Quota == nil {
		t.Fatal("quota snapshot missing")
	}
}

func TestScanDegradesToDeterministicFallback(t *testing.T) {
	userID := uuid.New()
	store := &fakeScanStore{allergens: []string{"Milk"}}
	resolver := &fakeResolver{product: testProduct("milk powder, sugar", "")}

	o := newTestOrchestrator(t, newFakeQuotaStore(10, true), resolver, failingClassifier{}, store)

	result, err := o.ScanBarcode(userID, "4006381333931")
	if err != nil {
		t.Fatalf("ScanBarcode() error = %v", err)
	}
	if result.Scan.RiskLevel != RiskRisky {
		t.Fatalf("fallback RiskLevel = %q, want %q", result.Scan.RiskLevel, RiskRisky)
	}
}

func TestScanWithoutIngredients(t *testing.T) {
	userID := uuid.New()

	t.Run("image present defers to image classification", func(t *testing.T) {
		store := &fakeScanStore{allergens: []string{"Milk"}}
		resolver := &fakeResolver{product: testProduct("", "https://img.example.com/label.jpg")}
		o := newTestOrchestrator(t, newFakeQuotaStore(10, true), resolver, NewDeterministicClassifier(), store)

		result, err := o.ScanImage(userID, "https://img.example.com/label.jpg", nil)
		if err != nil {
			t.Fatalf("ScanImage() error = %v", err)
		}
		if result.Scan.RiskLevel != RiskCaution {
			t.Fatalf("RiskLevel = %q, want %q", result.Scan.RiskLevel, RiskCaution)
		}
	})

	t.Run("no image and no ingredients is caution", func(t *testing.T) {
		store := &fakeScanStore{allergens: []string{"Milk"}}
		resolver := &fakeResolver{product: testProduct("", "")}
		o := newTestOrchestrator(t, newFakeQuotaStore(10, true), resolver, NewDeterministicClassifier(), store)

		result, err := o.ScanBarcode(userID, "4006381333931")
		if err != nil {
			t.Fatalf("ScanBarcode() error = %v", err)
		}
		if result.Scan.RiskLevel != RiskCaution {
			t.Fatalf("RiskLevel = %q, want %q", result.Scan.RiskLevel, RiskCaution)
		}
	})
}

func TestScanUploadMintsNamedProduct(t *testing.T) {
	userID := uuid.New()
	store := &fakeScanStore{allergens: []string{"Milk"}}
	resolver := &fakeResolver{product: testProduct("milk", "")}
	o := newTestOrchestrator(t, newFakeQuotaStore(10, true), resolver, NewDeterministicClassifier(), store)

	if _, err := o.ScanUpload(userID, "https://img.example.com/u.jpg", "Granola Bar"); err != nil {
		t.Fatalf("ScanUpload() error = %v", err)
	}
	if resolver.mintedName != "Granola Bar" {
		t.Fatalf("minted name = %q, want Granola Bar", resolver.mintedName)
	}

	if _, err := o.ScanUpload(userID, "https://img.example.com/u.jpg", "  "); err != nil {
		t.Fatalf("ScanUpload() error = %v", err)
	}
	if resolver.mintedFromImage != "https://img.example.com/u.jpg" {
		t.Fatalf("blank name must mint from the image URL, got %q", resolver.mintedFromImage)
	}
}

func TestFixedAllergensOverrideUserList(t *testing.T) {
	userID := uuid.New()
	store := &fakeScanStore{allergens: []string{"Milk"}}
	resolver := &fakeResolver{product: testProduct("peanut butter", "")}

	tracker := newTestTracker(t, newFakeQuotaStore(10, true), 100)
	o := NewOrchestrator(tracker, resolver, NewDeterministicClassifier(), store, []string{"Peanut"})

	result, err := o.ScanBarcode(userID, "4006381333931")
	if err != nil {
		t.Fatalf("ScanBarcode() error = %v", err)
	}
	if result.Scan.MatchedAllergens == nil || *result.Scan.MatchedAllergens != "Peanut" {
		t.Fatalf("MatchedAllergens = %v, want Peanut", result.Scan.MatchedAllergens)
	}
}

func TestScanResolverErrorsPropagate(t *testing.T) {
	userID := uuid.New()
	store := &fakeScanStore{allergens: []string{"Milk"}}
	resolver := &fakeResolver{err: ErrProductNotFound}
	o := newTestOrchestrator(t, newFakeQuotaStore(10, true), resolver, NewDeterministicClassifier(), store)

	if _, err := o.ScanBarcode(userID, "4006381333931"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("error = %v, want ErrProductNotFound", err)
	}
	if len(store.created) != 0 {
		t.Fatal("failed resolve must not persist a scan")
	}
}
