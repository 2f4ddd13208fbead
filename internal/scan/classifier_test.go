package scan

import (
	"errors"
	"reflect"
	"testing"
)

func TestDeterministicClassify(t *testing.T) {
	c := NewDeterministicClassifier()

	tests := []struct {
		name        string
		ingredients string
		allergens   []string
		wantLevel   string
		wantMatched []string
	}{
		{
			name:        "no allergens configured is always safe",
			ingredients: "",
			allergens:   nil,
			wantLevel:   RiskSafe,
			wantMatched: []string{},
		},
		{
			name:        "direct match is risky",
			ingredients: "Wheat flour, sugar, peanut oil, salt",
			allergens:   []string{"Peanut"},
			wantLevel:   RiskRisky,
			wantMatched: []string{"Peanut"},
		},
		{
			name:        "matched allergens keep list order and original labels",
			ingredients: "milk, egg white, wheat flour",
			allergens:   []string{"Wheat", "Egg", "Soy", "Milk"},
			wantLevel:   RiskRisky,
			wantMatched: []string{"Wheat", "Egg", "Milk"},
		},
		{
			name:        "space stripped match catches spaced spellings",
			ingredients: "sugar, pea nut butter",
			allergens:   []string{"peanut"},
			wantLevel:   RiskRisky,
			wantMatched: []string{"peanut"},
		},
		{
			name:        "may contain marker downgrades to caution",
			ingredients: "corn starch, salt. May contain traces of nuts.",
			allergens:   []string{"milk"},
			wantLevel:   RiskCaution,
			wantMatched: []string{},
		},
		{
			name:        "natural flavors marker downgrades to caution",
			ingredients: "water, natural flavors, citric acid",
			allergens:   []string{"egg"},
			wantLevel:   RiskCaution,
			wantMatched: []string{},
		},
		{
			name:        "direct match beats caution marker",
			ingredients: "milk solids, spices, may contain soy",
			allergens:   []string{"milk"},
			wantLevel:   RiskRisky,
			wantMatched: []string{"milk"},
		},
		{
			name:        "clean text is safe",
			ingredients: "water, sugar, citric acid",
			allergens:   []string{"peanut", "milk"},
			wantLevel:   RiskSafe,
			wantMatched: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := c.Classify(tt.ingredients, tt.allergens)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if verdict.RiskLevel != tt.wantLevel {
				t.Fatalf("RiskLevel = %q, want %q", verdict.RiskLevel, tt.wantLevel)
			}
			if !reflect.DeepEqual(verdict.MatchedAllergens, tt.wantMatched) {
				t.Fatalf("MatchedAllergens = %v, want %v", verdict.MatchedAllergens, tt.wantMatched)
			}
			if verdict.Reasoning == "" {
				t.Fatal("Reasoning must not be empty")
			}
		})
	}
}

func TestDeterministicClassifyEmptyIngredients(t *testing.T) {
	c := NewDeterministicClassifier()

	for _, text := range []string{"", "   "} {
		if _, err := c.Classify(text, []string{"milk"}); !errors.Is(err, ErrEmptyIngredients) {
			t.Fatalf("Classify(%q) error = %v, want ErrEmptyIngredients", text, err)
		}
	}
}

func TestDeterministicClassifyProductAppendsName(t *testing.T) {
	c := NewDeterministicClassifier()

	verdict, err := c.ClassifyProduct("water, sugar", []string{"milk"}, &ProductContext{ProductName: "Cola"})
	if err != nil {
		t.Fatalf("ClassifyProduct() error = %v", err)
	}
	if verdict.RiskLevel != RiskSafe {
		t.Fatalf("RiskLevel = %q, want %q", verdict.RiskLevel, RiskSafe)
	}
}

func TestDeterministicClassifyImage(t *testing.T) {
	c := NewDeterministicClassifier()

	// With allergens the offline strategy cannot inspect an image, so it
	// must never answer SAFE.
	verdict, err := c.ClassifyImage("https://example.com/label.jpg", []string{"milk"})
	if err != nil {
		t.Fatalf("ClassifyImage() error = %v", err)
	}
	if verdict.RiskLevel != RiskCaution {
		t.Fatalf("RiskLevel = %q, want %q", verdict.RiskLevel, RiskCaution)
	}

	verdict, err = c.ClassifyImage("https://example.com/label.jpg", nil)
	if err != nil {
		t.Fatalf("ClassifyImage() error = %v", err)
	}
	if verdict.RiskLevel != RiskSafe {
		t.Fatalf("RiskLevel without allergens = %q, want %q", verdict.RiskLevel, RiskSafe)
	}
}
