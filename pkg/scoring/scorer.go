// Package scoring normalizes route criteria to a common scale and ranks
// routes under a weighted, preference-driven policy.
package scoring

import (
	"github.com/shopspring/decimal"

	"chainroute/pkg/intent"
	"chainroute/pkg/router"
)

// Default normalization ceilings, used when neither configuration nor user
// preferences supply a maximum
const (
	DefaultMaxCost           = 1_000_000.0 // canonical smallest units
	DefaultMaxLatencySeconds = 3600.0
)

// LevelValue maps a categorical level onto the scoring scale:
// HIGH=3.0, MEDIUM=2.0, LOW=1.0
func LevelValue(l intent.Level) float64 {
	switch l {
	case intent.LevelHigh:
		return 3.0
	case intent.LevelMedium:
		return 2.0
	default:
		return 1.0
	}
}

// NormalizeCost maps a cost into (0,1]: 1/(1+cost/maxCost). Zero cost
// normalizes to exactly 1; the function is strictly decreasing in cost.
func NormalizeCost(cost, maxCost float64) float64 {
	if maxCost <= 0 {
		maxCost = DefaultMaxCost
	}
	return 1 / (1 + cost/maxCost)
}

// NormalizeLatency maps a latency in seconds into (0,1], like NormalizeCost
func NormalizeLatency(latencySeconds, maxLatencySeconds float64) float64 {
	if maxLatencySeconds <= 0 {
		maxLatencySeconds = DefaultMaxLatencySeconds
	}
	return 1 / (1 + latencySeconds/maxLatencySeconds)
}

// Scorer computes weighted multi-criteria scores for routes. The zero value
// scores with default ceilings and weights.
type Scorer struct {
	MaxCost           float64
	MaxLatencySeconds float64
	Weights           intent.Weights
}

// NewScorer creates a scorer with explicit ceilings and weights
func NewScorer(maxCost, maxLatencySeconds float64, weights intent.Weights) Scorer {
	return Scorer{MaxCost: maxCost, MaxLatencySeconds: maxLatencySeconds, Weights: weights}
}

// ForPreferences returns a scorer with the caller's maxima and weights
// applied over this scorer's defaults
func (s Scorer) ForPreferences(p intent.Preferences) Scorer {
	out := s
	if p.MaxCost != "" {
		if d, err := decimal.NewFromString(p.MaxCost); err == nil && d.IsPositive() {
			out.MaxCost, _ = d.Float64()
		}
	}
	if p.MaxLatencySeconds > 0 {
		out.MaxLatencySeconds = float64(p.MaxLatencySeconds)
	}
	if p.Weights != nil {
		out.Weights = *p.Weights
	}
	return out
}

func (s Scorer) weights() intent.Weights {
	if s.Weights == (intent.Weights{}) {
		return intent.DefaultWeights()
	}
	return s.Weights
}

// Score computes the weighted score of a route
func (s Scorer) Score(r router.Route) float64 {
	return s.Explain(r).Total
}

// Criterion is one dimension of a route score
type Criterion struct {
	Name         string  `json:"name"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Explanation breaks a route's score down per criterion for auditability.
// The contributions sum to the total.
type Explanation struct {
	RouteID  string      `json:"route_id"`
	Criteria []Criterion `json:"criteria"`
	Total    float64     `json:"total"`
}

// Explain computes the score with its per-criterion breakdown
func (s Scorer) Explain(r router.Route) Explanation {
	w := s.weights()

	criteria := []Criterion{
		{Name: "privacy", Normalized: LevelValue(r.PrivacyScore), Weight: w.Privacy},
		{Name: "cost", Normalized: NormalizeCost(costValue(r.EstimatedCost, s.MaxCost), s.MaxCost), Weight: w.Cost},
		{Name: "latency", Normalized: NormalizeLatency(float64(r.EstimatedLatencySeconds), s.MaxLatencySeconds), Weight: w.Latency},
		{Name: "trust", Normalized: LevelValue(r.TrustScore), Weight: w.Trust},
	}

	total := 0.0
	for i := range criteria {
		criteria[i].Contribution = criteria[i].Weight * criteria[i].Normalized
		total += criteria[i].Contribution
	}

	return Explanation{RouteID: r.ID, Criteria: criteria, Total: total}
}

// costValue parses a decimal cost string; an unparseable cost is treated as
// the ceiling so that a malformed quote never outranks a well-formed one
func costValue(cost string, maxCost float64) float64 {
	d, err := decimal.NewFromString(cost)
	if err != nil || d.IsNegative() {
		if maxCost <= 0 {
			return DefaultMaxCost
		}
		return maxCost
	}
	f, _ := d.Float64()
	return f
}
