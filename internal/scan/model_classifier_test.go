package scan

import (
	"reflect"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantLevel   string
		wantMatched []string
		wantErr     bool
	}{
		{
			name:        "plain json",
			content:     `{"risk_level": "RISKY", "matched_allergens": ["milk"], "reasoning": "contains milk"}`,
			wantLevel:   RiskRisky,
			wantMatched: []string{"milk"},
		},
		{
			name:        "json fenced in markdown",
			content:     "```json\n{\"risk_level\": \"SAFE\", \"matched_allergens\": [], \"reasoning\": \"clean\"}\n```",
			wantLevel:   RiskSafe,
			wantMatched: []string{},
		},
		{
			name:        "bare fence",
			content:     "```\n{\"risk_level\": \"CAUTION\", \"matched_allergens\": [], \"reasoning\": \"may contain\"}\n```",
			wantLevel:   RiskCaution,
			wantMatched: []string{},
		},
		{
			name:        "json buried in prose",
			content:     `Here is the analysis: {"risk_level": "RISKY", "matched_allergens": ["egg"], "reasoning": "albumin"} Hope that helps!`,
			wantLevel:   RiskRisky,
			wantMatched: []string{"egg"},
		},
		{
			name:        "lowercase level is normalized",
			content:     `{"risk_level": "safe", "matched_allergens": [], "reasoning": "ok"}`,
			wantLevel:   RiskSafe,
			wantMatched: []string{},
		},
		{
			name:        "null matched allergens become empty slice",
			content:     `{"risk_level": "SAFE", "matched_allergens": null, "reasoning": "ok"}`,
			wantLevel:   RiskSafe,
			wantMatched: []string{},
		},
		{
			name:    "unknown risk level is rejected",
			content: `{"risk_level": "MAYBE", "matched_allergens": [], "reasoning": "?"}`,
			wantErr: true,
		},
		{
			name:    "no json at all",
			content: "The product looks fine to me.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := parseVerdict(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseVerdict() error = %v", err)
			}
			if verdict.RiskLevel != tt.wantLevel {
				t.Fatalf("RiskLevel = %q, want %q", verdict.RiskLevel, tt.wantLevel)
			}
			if !reflect.DeepEqual(verdict.MatchedAllergens, tt.wantMatched) {
				t.Fatalf("MatchedAllergens = %v, want %v", verdict.MatchedAllergens, tt.wantMatched)
			}
		})
	}
}
