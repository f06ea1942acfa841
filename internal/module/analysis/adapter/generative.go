package adapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// GenerativeConfig configures the multimodal generative adapter.
type GenerativeConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GenerativeAdapter calls a multimodal generative backend whose chat-style
// response carries a structured nutrition record, optionally wrapped in a
// fenced code block.
type GenerativeAdapter struct {
	cfg    GenerativeConfig
	client *http.Client
}

const nutritionPrompt = `Analyze the meal in this photo and respond with a single JSON object:
{"calories": number, "protein": grams, "carbs": grams, "fats": grams, "confidence": 0-1, "detectedFoods": [strings], "description": "short summary"}`

// NewGenerativeAdapter creates a generative adapter with the given HTTP client.
func NewGenerativeAdapter(cfg GenerativeConfig, client *http.Client) *GenerativeAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &GenerativeAdapter{cfg: cfg, client: client}
}

// Name returns the adapter identifier.
func (a *GenerativeAdapter) Name() string {
	return "generative"
}

// Analyze submits the base64 image plus prompt and parses the structured
// nutrition record out of the chat envelope.
func (a *GenerativeAdapter) Analyze(ctx context.Context, image []byte, description string) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	prompt := nutritionPrompt
	if description != "" {
		prompt += "\nThe user describes the meal as: " + description
	}

	body := map[string]any{
		"model":        a.cfg.Model,
		"imagePayload": base64.StdEncoding.EncodeToString(image),
		"promptText":   prompt,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, newError(a.Name(), KindTransport, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/analyze", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, newError(a.Name(), KindTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, wrapTransport(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, classifyStatus(a.Name(), resp.StatusCode)
	}

	envelope, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransport(a.Name(), err)
	}

	content := gjson.GetBytes(envelope, "choices.0.message.content")
	if !content.Exists() {
		return nil, newError(a.Name(), KindMalformed, fmt.Errorf("envelope missing message content"))
	}

	est, err := parseNutritionRecord(content.String())
	if err != nil {
		return nil, newError(a.Name(), KindMalformed, err)
	}

	return &Output{Estimate: est}, nil
}

// parseNutritionRecord parses the model's text output into an Estimate after
// stripping well-known wrapping artifacts.
func parseNutritionRecord(content string) (*meal.Estimate, error) {
	var record struct {
		Calories      float64  `json:"calories"`
		Protein       float64  `json:"protein"`
		Carbs         float64  `json:"carbs"`
		Fats          float64  `json:"fats"`
		Confidence    float64  `json:"confidence"`
		DetectedFoods []string `json:"detectedFoods"`
		Description   string   `json:"description"`
	}
	if err := json.Unmarshal([]byte(UnwrapJSON(content)), &record); err != nil {
		return nil, fmt.Errorf("parse nutrition record: %w", err)
	}
	if record.Calories <= 0 {
		return nil, fmt.Errorf("nutrition record missing calories")
	}

	return &meal.Estimate{
		Calories:      record.Calories,
		Protein:       record.Protein,
		Carbs:         record.Carbs,
		Fats:          record.Fats,
		Confidence:    record.Confidence,
		DetectedFoods: record.DetectedFoods,
		Description:   record.Description,
	}, nil
}

// UnwrapJSON strips markdown code fences and surrounding prose from a model
// response, returning the innermost JSON object candidate. Generative models
// routinely wrap the requested JSON in a fenced block; this is part of the
// parsing contract, not cosmetic cleanup.
func UnwrapJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Tolerate prose around the object.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

var _ Adapter = (*GenerativeAdapter)(nil)
