package scan

import (
	"errors"
	"fmt"
	"strings"
)

// Risk verdict levels.
const (
	RiskSafe    = "SAFE"
	RiskCaution = "CAUTION"
	RiskRisky   = "RISKY"
)

// ErrEmptyIngredients signals a caller bug: the classifier must not be
// invoked with blank ingredient text.
var ErrEmptyIngredients = errors.New("ingredients text is empty")

// Verdict is the classifier output contract, shared by both strategies.
type Verdict struct {
	RiskLevel        string   `json:"risk_level"`
	MatchedAllergens []string `json:"matched_allergens"`
	Reasoning        string   `json:"reasoning"`
}

// ProductContext carries optional product metadata that enriches the
// reasoning without changing the output contract.
type ProductContext struct {
	ProductName string
	Brand       string
	Category    string
}

// Classifier maps ingredient text and a user's allergen list to a risk
// verdict. Implementations: DeterministicClassifier and ModelClassifier.
type Classifier interface {
	Classify(ingredients string, allergens []string) (*Verdict, error)
	ClassifyProduct(ingredients string, allergens []string, pctx *ProductContext) (*Verdict, error)
	ClassifyImage(imageURL string, allergens []string) (*Verdict, error)
}

const safeNoAllergensReasoning = "No allergens configured for this user, so no risk analysis was performed."

// Cross-contamination markers and ambiguous composite ingredients that
// downgrade an otherwise clean text to CAUTION.
var cautionMarkers = []string{"may contain", "traces of", "natural flavors", "spices"}

// DeterministicClassifier is the offline strategy: lower-cased substring
// matching of each allergen (literal and space-stripped) against the
// ingredient text. Matched allergens are reported with the user's original
// labels, in list order.
type DeterministicClassifier struct{}

func NewDeterministicClassifier() *DeterministicClassifier {
	return &DeterministicClassifier{}
}

func (d *DeterministicClassifier) Classify(ingredients string, allergens []string) (*Verdict, error) {
	if len(allergens) == 0 {
		return &Verdict{
			RiskLevel:        RiskSafe,
			MatchedAllergens: []string{},
			Reasoning:        safeNoAllergensReasoning,
		}, nil
	}

	text := strings.ToLower(strings.TrimSpace(ingredients))
	if text == "" {
		return nil, ErrEmptyIngredients
	}
	textNoSpaces := strings.ReplaceAll(text, " ", "")

	matched := make([]string, 0, len(allergens))
	for _, allergen := range allergens {
		needle := strings.ToLower(strings.TrimSpace(allergen))
		if needle == "" {
			continue
		}
		needleNoSpaces := strings.ReplaceAll(needle, " ", "")
		if strings.Contains(text, needle) || strings.Contains(textNoSpaces, needleNoSpaces) {
			matched = append(matched, allergen)
		}
	}

	if len(matched) > 0 {
		return &Verdict{
			RiskLevel:        RiskRisky,
			MatchedAllergens: matched,
			Reasoning:        fmt.Sprintf("Ingredients contain allergens you are sensitive to: %s.", strings.Join(matched, ", ")),
		}, nil
	}

	for _, marker := range cautionMarkers {
		if strings.Contains(text, marker) {
			return &Verdict{
				RiskLevel:        RiskCaution,
				MatchedAllergens: []string{},
				Reasoning:        fmt.Sprintf("No direct allergen match, but the ingredients mention %q, which can hide allergen exposure.", marker),
			}, nil
		}
	}

	return &Verdict{
		RiskLevel:        RiskSafe,
		MatchedAllergens: []string{},
		Reasoning:        "No allergens from your list were found in the ingredients.",
	}, nil
}

func (d *DeterministicClassifier) ClassifyProduct(ingredients string, allergens []string, pctx *ProductContext) (*Verdict, error) {
	verdict, err := d.Classify(ingredients, allergens)
	if err != nil {
		return nil, err
	}
	if pctx != nil && pctx.ProductName != "" {
		verdict.Reasoning = fmt.Sprintf("%s (product: %s)", verdict.Reasoning, pctx.ProductName)
	}
	return verdict, nil
}

// ClassifyImage without a model cannot analyze anything. It must not claim
// SAFE, so it returns a fixed CAUTION verdict.
func (d *DeterministicClassifier) ClassifyImage(imageURL string, allergens []string) (*Verdict, error) {
	if len(allergens) == 0 {
		return &Verdict{
			RiskLevel:        RiskSafe,
			MatchedAllergens: []string{},
			Reasoning:        safeNoAllergensReasoning,
		}, nil
	}
	return &Verdict{
		RiskLevel:        RiskCaution,
		MatchedAllergens: []string{},
		Reasoning:        "Image analysis requires the AI classifier, which is currently unavailable. Treat this product with caution and check the label manually.",
	}, nil
}
