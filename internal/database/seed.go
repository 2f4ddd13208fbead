package database

import (
	"log/slog"

	"github.com/safebite/safebite-backend/internal/models"
)

var defaultTierPlans = []models.TierPlan{
	{Name: "FREE", ScanCountLimit: 10, SavedProductLimit: 20, PriceCents: 0},
	{Name: "PREMIUM", ScanCountLimit: 100, SavedProductLimit: 500, PriceCents: 499},
	{Name: "FAMILY", ScanCountLimit: 300, SavedProductLimit: 1500, PriceCents: 999},
}

var baseAllergens = []string{
	"Milk", "Egg", "Peanuts", "Tree Nuts", "Soy", "Wheat",
	"Fish", "Shellfish", "Sesame", "Gluten", "Mustard", "Celery",
}

// Seed inserts the default tier plans and the base allergen catalogue.
// Safe to run on every startup.
func Seed() error {
	for _, plan := range defaultTierPlans {
		plan.IsActive = true
		var existing models.TierPlan
		if err := DB.Where("name = ?", plan.Name).Attrs(plan).FirstOrCreate(&existing).Error; err != nil {
			return err
		}
	}

	for _, name := range baseAllergens {
		var existing models.Allergen
		if err := DB.Where("name = ?", name).
			Attrs(models.Allergen{Name: name, IsCustom: false}).
			FirstOrCreate(&existing).Error; err != nil {
			return err
		}
	}

	slog.Info("seed data ensured", "tier_plans", len(defaultTierPlans), "allergens", len(baseAllergens))
	return nil
}
