// Package aggregate combines provider output into one validated estimate.
package aggregate

import (
	"strings"

	"github.com/mealmetric/server/internal/module/analysis/adapter"
	"github.com/mealmetric/server/internal/module/analysis/foodref"
	"github.com/mealmetric/server/internal/module/analysis/meal"
)

// Confidence weights for the top three ranked labels.
var rankWeights = [3]float64{0.6, 0.3, 0.1}

// Aggregator turns provider output into a clamped MacroEstimate.
type Aggregator struct {
	table *foodref.Table
}

// New creates an aggregator backed by the given reference table.
func New(table *foodref.Table) *Aggregator {
	if table == nil {
		table = foodref.Default()
	}
	return &Aggregator{table: table}
}

// Aggregate validates and combines one provider output. A nil return means
// the output is unusable and the pipeline should advance to the next stage.
// Every returned estimate is already clamped.
func (a *Aggregator) Aggregate(out *adapter.Output) *meal.Estimate {
	if out == nil {
		return nil
	}
	if out.Estimate != nil {
		return a.fromRecord(out.Estimate)
	}
	if len(out.Labels) > 0 {
		return a.fromLabels(out.Labels)
	}
	return nil
}

// fromRecord passes a generative structured record through validation.
func (a *Aggregator) fromRecord(rec *meal.Estimate) *meal.Estimate {
	if rec.Calories <= 0 {
		return nil
	}
	est := meal.Clamp(*rec)
	est.Degraded = false
	if est.DetectedFoods == nil {
		est.DetectedFoods = []string{}
	}
	return &est
}

// fromLabels blends the top-3 ranked labels with fixed confidence weights.
// Labels without a reference-table match contribute zero to the weighted sum
// but still appear in DetectedFoods.
func (a *Aggregator) fromLabels(labels []adapter.Label) *meal.Estimate {
	top := labels
	if len(top) > 3 {
		top = top[:3]
	}

	var est meal.Estimate
	detected := make([]string, 0, len(top))
	for i, l := range top {
		detected = append(detected, l.Label)
		est.Confidence += rankWeights[i] * l.Confidence

		ref, ok := a.table.Lookup(l.Label)
		if !ok {
			continue
		}
		est.Calories += rankWeights[i] * ref.Calories
		est.Protein += rankWeights[i] * ref.Protein
		est.Carbs += rankWeights[i] * ref.Carbs
		est.Fats += rankWeights[i] * ref.Fats
	}

	if est.Calories == 0 {
		// No label matched the reference table. Substitute the generic
		// defaults instead of returning an all-zero estimate, but keep
		// the detected labels visible.
		def := meal.DefaultEstimate()
		def.DetectedFoods = detected
		def.Description = describeLabels(detected)
		return def
	}

	est.DetectedFoods = detected
	est.Description = describeLabels(detected)
	est.Degraded = false
	est = meal.Clamp(est)
	return &est
}

func describeLabels(labels []string) string {
	if len(labels) == 0 {
		return "Analyzed meal"
	}
	return "Detected: " + strings.Join(labels, ", ")
}
