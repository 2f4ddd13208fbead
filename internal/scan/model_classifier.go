package scan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/safebite/safebite-backend/internal/config"
)

const classifierSystemPrompt = `You are a food-allergen risk analyst. You receive an ingredient list and the user's allergen list.
Consider direct matches, known synonyms (casein -> milk, whey -> milk, albumin -> egg, ovalbumin -> egg) and cross-contamination phrasing like "may contain" or "traces of".
Return your analysis as a JSON object with these exact fields:
{"risk_level":"SAFE|CAUTION|RISKY","matched_allergens":["..."],"reasoning":"..."}
risk_level must be exactly one of SAFE, CAUTION or RISKY. Return ONLY the JSON object, no extra text.`

const imageClassifierPrompt = `You are a food-allergen risk analyst. You receive a photo of a food product or its label and the user's allergen list.
Read any visible ingredient information and assess the allergen risk. If the ingredients are not legible, answer CAUTION.
Return your analysis as a JSON object with these exact fields:
{"risk_level":"SAFE|CAUTION|RISKY","matched_allergens":["..."],"reasoning":"..."}
Return ONLY the JSON object, no extra text.`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content interface{} `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ModelClassifier delegates to a generative model constrained to the
// three-field verdict schema. Every failure path falls back to the
// deterministic strategy so a scan always completes.
type ModelClassifier struct {
	cfg      *config.Config
	fallback *DeterministicClassifier
}

func NewModelClassifier(cfg *config.Config) *ModelClassifier {
	return &ModelClassifier{cfg: cfg, fallback: NewDeterministicClassifier()}
}

func (m *ModelClassifier) Classify(ingredients string, allergens []string) (*Verdict, error) {
	return m.ClassifyProduct(ingredients, allergens, nil)
}

func (m *ModelClassifier) ClassifyProduct(ingredients string, allergens []string, pctx *ProductContext) (*Verdict, error) {
	if len(allergens) == 0 {
		return m.fallback.Classify(ingredients, allergens)
	}
	if strings.TrimSpace(ingredients) == "" {
		return nil, ErrEmptyIngredients
	}

	prompt := buildUserPrompt(ingredients, allergens, pctx)
	verdict, err := m.analyze(classifierSystemPrompt, chatMessage{Role: "user", Content: prompt}, false)
	if err != nil {
		slog.Warn("AI classification failed, falling back to deterministic strategy", "error", err)
		return m.fallback.ClassifyProduct(ingredients, allergens, pctx)
	}
	return verdict, nil
}

func (m *ModelClassifier) ClassifyImage(imageURL string, allergens []string) (*Verdict, error) {
	if len(allergens) == 0 {
		return m.fallback.ClassifyImage(imageURL, allergens)
	}

	userMsg := chatMessage{Role: "user", Content: []chatContentPart{
		{Type: "text", Text: "My allergens: " + strings.Join(allergens, ", ") + ". Please assess this product photo."},
		{Type: "image_url", ImageURL: &chatImageURL{URL: imageURL, Detail: "auto"}},
	}}

	verdict, err := m.analyzeVision(imageClassifierPrompt, userMsg)
	if err != nil {
		slog.Warn("AI image classification failed, returning caution verdict", "error", err)
		return m.fallback.ClassifyImage(imageURL, allergens)
	}
	return verdict, nil
}

func buildUserPrompt(ingredients string, allergens []string, pctx *ProductContext) string {
	var b strings.Builder
	b.WriteString("User allergens: ")
	b.WriteString(strings.Join(allergens, ", "))
	b.WriteString("\nIngredients: ")
	b.WriteString(ingredients)
	if pctx != nil {
		if pctx.ProductName != "" {
			b.WriteString("\nProduct: " + pctx.ProductName)
		}
		if pctx.Brand != "" {
			b.WriteString("\nBrand: " + pctx.Brand)
		}
		if pctx.Category != "" {
			b.WriteString("\nCategory: " + pctx.Category)
		}
	}
	return b.String()
}

func (m *ModelClassifier) analyze(systemPrompt string, userMsg chatMessage, _ bool) (*Verdict, error) {
	// GLM first, DeepSeek as fallback provider.
	if m.cfg.GLMAPIKey != "" {
		verdict, err := m.callProvider(m.cfg.GLMAPIURL, m.cfg.GLMAPIKey, m.cfg.GLMModel, systemPrompt, userMsg)
		if err == nil {
			return verdict, nil
		}
		slog.Warn("GLM classification failed", "error", err)
	}

	if m.cfg.DeepSeekAPIKey != "" {
		verdict, err := m.callProvider(m.cfg.DeepSeekAPIURL, m.cfg.DeepSeekAPIKey, m.cfg.DeepSeekModel, systemPrompt, userMsg)
		if err == nil {
			return verdict, nil
		}
		slog.Warn("DeepSeek classification failed", "error", err)
	}

	return nil, errors.New("no AI provider available")
}

func (m *ModelClassifier) analyzeVision(systemPrompt string, userMsg chatMessage) (*Verdict, error) {
	if m.cfg.GLMAPIKey == "" {
		return nil, errors.New("no vision-capable AI provider available")
	}
	return m.callProvider(m.cfg.GLMAPIURL, m.cfg.GLMAPIKey, m.cfg.GLMVisionModel, systemPrompt, userMsg)
}

func (m *ModelClassifier) callProvider(apiURL, apiKey, model, systemPrompt string, userMsg chatMessage) (*Verdict, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			userMsg,
		},
		Temperature: 0.1,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	timeout := m.cfg.AITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("AI API error: status %d", resp.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from AI")
	}

	var content string
	switch v := completion.Choices[0].Message.Content.(type) {
	case string:
		content = v
	default:
		contentBytes, err := json.Marshal(v)
		if err != nil {
			return nil, errors.New("failed to extract content from AI response")
		}
		content = string(contentBytes)
	}

	return parseVerdict(content)
}

func parseVerdict(content string) (*Verdict, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var parsed Verdict
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start >= 0 && end > start {
			if err2 := json.Unmarshal([]byte(content[start:end+1]), &parsed); err2 != nil {
				return nil, fmt.Errorf("failed to parse verdict: %w", err2)
			}
		} else {
			return nil, fmt.Errorf("failed to parse verdict: %w", err)
		}
	}

	parsed.RiskLevel = strings.ToUpper(strings.TrimSpace(parsed.RiskLevel))
	switch parsed.RiskLevel {
	case RiskSafe, RiskCaution, RiskRisky:
	default:
		return nil, fmt.Errorf("invalid risk level %q", parsed.RiskLevel)
	}
	if parsed.MatchedAllergens == nil {
		parsed.MatchedAllergens = []string{}
	}

	return &parsed, nil
}
