package scoring

import (
	"fmt"
	"sort"

	"chainroute/pkg/router"
)

// Comparator strategy names
const (
	StrategyWeighted     = "weighted"
	StrategyPrivacyFirst = "privacy-first"
)

// Comparator imposes a total order on routes. Compare returns the sign of
// a's standing relative to b's: 1 when a ranks higher, -1 when b does, 0 on
// an exact tie.
type Comparator interface {
	Compare(a, b router.Route) int
}

// NewComparator builds the named comparator strategy over a scorer
func NewComparator(strategy string, scorer Scorer) (Comparator, error) {
	switch strategy {
	case StrategyWeighted, "":
		return WeightedComparator{Scorer: scorer}, nil
	case StrategyPrivacyFirst:
		return PrivacyFirstComparator{Scorer: scorer}, nil
	default:
		return nil, fmt.Errorf("unknown comparator strategy %q", strategy)
	}
}

// WeightedComparator orders routes by their weighted multi-criteria score
type WeightedComparator struct {
	Scorer Scorer
}

func (c WeightedComparator) Compare(a, b router.Route) int {
	return sign(c.Scorer.Score(a) - c.Scorer.Score(b))
}

// PrivacyFirstComparator short-circuits on the privacy level and falls back
// to the weighted score only between routes of equal privacy
type PrivacyFirstComparator struct {
	Scorer Scorer
}

func (c PrivacyFirstComparator) Compare(a, b router.Route) int {
	if d := sign(LevelValue(a.PrivacyScore) - LevelValue(b.PrivacyScore)); d != 0 {
		return d
	}
	return sign(c.Scorer.Score(a) - c.Scorer.Score(b))
}

// Rank sorts routes descending by comparator order. The sort is stable and
// exact ties break by ascending route id, so ranking is deterministic and
// reproducible for identical inputs.
func Rank(routes []router.Route, c Comparator) []router.Route {
	ranked := make([]router.Route, len(routes))
	copy(ranked, routes)

	sort.SliceStable(ranked, func(i, j int) bool {
		switch c.Compare(ranked[i], ranked[j]) {
		case 1:
			return true
		case -1:
			return false
		default:
			return ranked[i].ID < ranked[j].ID
		}
	})

	return ranked
}

func sign(d float64) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	default:
		return 0
	}
}
