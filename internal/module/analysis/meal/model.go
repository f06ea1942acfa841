package meal

// Tier is a per-user service level determining the daily analysis quota.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierVIP     Tier = "vip"
)

// DailyLimit returns the number of analyses a tier may run per calendar day.
// Unknown tiers fall back to the basic limit.
func (t Tier) DailyLimit() int {
	switch t {
	case TierPremium:
		return 8
	case TierVIP:
		return 12
	default:
		return 5
	}
}

// ParseTier normalizes a tier string, defaulting to basic.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierPremium:
		return TierPremium
	case TierVIP:
		return TierVIP
	default:
		return TierBasic
	}
}

// Request describes one meal analysis invocation. Immutable once built.
type Request struct {
	// ImageRef is an opaque content handle resolved by the image store.
	ImageRef    string `json:"image_ref"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"user_id"`
	Tier        Tier   `json:"tier"`
}

// Estimate is the pipeline's sole output type. Degraded signals that the
// heuristic or default path produced the values rather than a provider.
type Estimate struct {
	Calories      float64  `json:"calories"`
	Protein       float64  `json:"protein_g"`
	Carbs         float64  `json:"carbs_g"`
	Fats          float64  `json:"fats_g"`
	Confidence    float64  `json:"confidence"`
	DetectedFoods []string `json:"detected_foods"`
	Description   string   `json:"description"`
	Degraded      bool     `json:"degraded"`
}

// Physiological plausibility bounds. Values outside a bound are truncated to
// it, never rejected.
const (
	MaxCalories = 2000.0
	MaxProtein  = 100.0
	MaxCarbs    = 200.0
	MaxFats     = 100.0
)

// Clamp truncates every numeric field into its plausibility bound and returns
// the result. The zero floor applies to all macro fields.
func Clamp(e Estimate) Estimate {
	e.Calories = clampRange(e.Calories, 0, MaxCalories)
	e.Protein = clampRange(e.Protein, 0, MaxProtein)
	e.Carbs = clampRange(e.Carbs, 0, MaxCarbs)
	e.Fats = clampRange(e.Fats, 0, MaxFats)
	e.Confidence = clampRange(e.Confidence, 0, 1)
	return e
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DefaultEstimate returns the terminal fallback: a generic meal estimate used
// when no provider output and no keyword match is available.
func DefaultEstimate() *Estimate {
	return &Estimate{
		Calories:      250,
		Protein:       12,
		Carbs:         30,
		Fats:          8,
		Confidence:    0.35,
		DetectedFoods: []string{},
		Description:   "Generic meal estimate",
		Degraded:      true,
	}
}
