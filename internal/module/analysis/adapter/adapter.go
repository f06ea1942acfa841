// Package adapter provides a uniform interface over the external meal
// analysis backends. Each adapter maps its provider's wire format into the
// common Output type so the pipeline never branches on provider identity.
package adapter

import (
	"context"
	"time"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// DefaultTimeout is the hard per-call timeout enforced by every adapter.
const DefaultTimeout = 30 * time.Second

// Label is one ranked classification result.
type Label struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Output is the common result type for all providers. Exactly one of Labels
// (classifier-style, ordered by confidence descending) or Estimate
// (generative-style structured record) is populated.
type Output struct {
	Labels   []Label
	Estimate *meal.Estimate
}

// Adapter analyzes a meal image with one external backend.
type Adapter interface {
	// Name returns the adapter's identifier, used for logging and metrics.
	Name() string

	// Analyze submits the image and optional description to the backend.
	// Failures are always returned as *Error with a populated Kind.
	Analyze(ctx context.Context, image []byte, description string) (*Output, error)
}
