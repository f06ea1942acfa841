// Package heuristic estimates macros from a free-text meal description when
// no provider output is usable. Pure keyword matching, no I/O.
package heuristic

import (
	"strings"

	"github.com/mealmetric/server/internal/module/analysis/meal"
)

type keywordEntry struct {
	keyword  string
	calories float64
	protein  float64
	carbs    float64
	fats     float64
}

// Ordered: first match wins on substring search.
var keywordTable = []keywordEntry{
	{"huevos", 150, 12, 1, 10},
	{"eggs", 150, 12, 1, 10},
	{"pollo", 220, 30, 0, 10},
	{"chicken", 220, 30, 0, 10},
	{"arroz", 200, 4, 44, 0.5},
	{"rice", 200, 4, 44, 0.5},
	{"ensalada", 80, 3, 10, 3},
	{"salad", 80, 3, 10, 3},
	{"pizza", 285, 12, 36, 10},
	{"pasta", 220, 8, 43, 1.3},
	{"pan", 160, 5, 30, 2},
	{"bread", 160, 5, 30, 2},
	{"pescado", 190, 24, 0, 10},
	{"fish", 190, 24, 0, 10},
	{"carne", 260, 25, 0, 17},
	{"beef", 260, 25, 0, 17},
	{"sopa", 120, 6, 15, 4},
	{"soup", 120, 6, 15, 4},
	{"fruta", 90, 1, 22, 0.4},
	{"fruit", 90, 1, 22, 0.4},
	{"avena", 150, 5, 27, 3},
	{"oatmeal", 150, 5, 27, 3},
	{"yogur", 100, 9, 7, 3},
	{"yogurt", 100, 9, 7, 3},
	{"sandwich", 280, 13, 32, 11},
	{"hamburguesa", 350, 18, 30, 17},
	{"burger", 350, 18, 30, 17},
}

// Estimate matches the description against the keyword table,
// case-insensitively, first match wins. The second return is false when no
// keyword matched.
func Estimate(description string) (*meal.Estimate, bool) {
	desc := strings.ToLower(description)
	if desc == "" {
		return nil, false
	}

	for _, e := range keywordTable {
		if !strings.Contains(desc, e.keyword) {
			continue
		}
		est := meal.Clamp(meal.Estimate{
			Calories:      e.calories,
			Protein:       e.protein,
			Carbs:         e.carbs,
			Fats:          e.fats,
			Confidence:    0.5,
			DetectedFoods: []string{e.keyword},
			Description:   "Estimated from description: " + e.keyword,
			Degraded:      true,
		})
		return &est, true
	}

	return nil, false
}
