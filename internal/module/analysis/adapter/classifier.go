package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// ClassifierConfig configures the image classification adapter.
type ClassifierConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ClassifierAdapter calls an image-classification backend that returns ranked
// food labels with confidence scores.
type ClassifierAdapter struct {
	cfg    ClassifierConfig
	client *http.Client
}

// NewClassifierAdapter creates a classifier adapter with the given HTTP client.
func NewClassifierAdapter(cfg ClassifierConfig, client *http.Client) *ClassifierAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	return &ClassifierAdapter{cfg: cfg, client: client}
}

// Name returns the adapter identifier.
func (a *ClassifierAdapter) Name() string {
	return "classifier"
}

// Analyze submits the raw image bytes and maps the ranked label response into
// the common Output type.
func (a *ClassifierAdapter) Analyze(ctx context.Context, image []byte, _ string) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/classify", bytes.NewReader(image))
	if err != nil {
		return nil, newError(a.Name(), KindTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/octet-stream")
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

	var raw []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, newError(a.Name(), KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	if len(raw) == 0 {
		return nil, newError(a.Name(), KindMalformed, fmt.Errorf("empty label array"))
	}

	labels := make([]Label, 0, len(raw))
	for _, l := range raw {
		if l.Label == "" {
			return nil, newError(a.Name(), KindMalformed, fmt.Errorf("label entry missing name"))
		}
		labels = append(labels, Label{Label: l.Label, Confidence: l.Score})
	}

	// Contract says descending by score; enforce it rather than trust it.
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})

	return &Output{Labels: labels}, nil
}

var _ Adapter = (*ClassifierAdapter)(nil)
