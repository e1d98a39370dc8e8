// Package router defines the route discovery capability: the Router
// contract, the Route values routers produce, and the registry that fans
// discovery out across registered routers.
package router

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chainroute/pkg/intent"
)

// StepType classifies a single route step
type StepType string

const (
	StepBridge  StepType = "BRIDGE"
	StepSwap    StepType = "SWAP"
	StepSend    StepType = "SEND"
	StepReceive StepType = "RECEIVE"
)

// TrustModel classifies how much custody a route step requires
type TrustModel string

const (
	TrustCustodial    TrustModel = "CUSTODIAL"
	TrustNonCustodial TrustModel = "NON_CUSTODIAL"
	TrustTrustless    TrustModel = "TRUSTLESS"
)

// Level maps a trust model to a categorical trust level
func (t TrustModel) Level() intent.Level {
	switch t {
	case TrustTrustless:
		return intent.LevelHigh
	case TrustNonCustodial:
		return intent.LevelMedium
	default:
		return intent.LevelLow
	}
}

// Step is one hop of a route. A step carries only its own pricing and
// assets; it never references sibling steps.
type Step struct {
	Sequence                int          `json:"sequence"`
	Type                    StepType     `json:"type"`
	Provider                string       `json:"provider"`
	InputAsset              intent.Asset `json:"input_asset"`
	OutputAsset             intent.Asset `json:"output_asset"`
	InputAmount             string       `json:"input_amount"` // smallest units
	EstimatedCost           string       `json:"estimated_cost"`
	EstimatedLatencySeconds int64        `json:"estimated_latency_seconds"`
	TrustModel              TrustModel   `json:"trust_model"`
	PrivacyScore            intent.Level `json:"privacy_score"`
}

// Route is a concrete, priced, timed sequence of steps that fulfils an
// intent. Routes are never mutated in place; a refresh produces a new value.
type Route struct {
	ID                      string       `json:"id"`
	IntentID                string       `json:"intent_id"`
	RouterID                string       `json:"router_id"`
	Steps                   []Step       `json:"steps"`
	EstimatedCost           string       `json:"estimated_cost"`
	EstimatedLatencySeconds int64        `json:"estimated_latency_seconds"`
	PrivacyScore            intent.Level `json:"privacy_score"`
	TrustScore              intent.Level `json:"trust_score"`
	ExpiresAt               int64        `json:"expires_at"` // unix milliseconds
}

// NewRoute assembles a route from its steps, deriving the aggregate cost,
// latency, privacy and trust scores. Route privacy is the minimum privacy
// across steps; route trust is the minimum trust across step trust models.
func NewRoute(intentID, routerID string, steps []Step, expiresAt int64) (Route, error) {
	if len(steps) == 0 {
		return Route{}, fmt.Errorf("route must have at least one step")
	}

	totalCost := decimal.Zero
	var totalLatency int64
	privacy := intent.LevelHigh
	trust := intent.LevelHigh

	for i := range steps {
		steps[i].Sequence = i
		cost, err := decimal.NewFromString(steps[i].EstimatedCost)
		if err != nil {
			return Route{}, fmt.Errorf("step %d: invalid cost %q: %w", i, steps[i].EstimatedCost, err)
		}
		totalCost = totalCost.Add(cost)
		totalLatency += steps[i].EstimatedLatencySeconds
		privacy = minLevel(privacy, steps[i].PrivacyScore)
		trust = minLevel(trust, steps[i].TrustModel.Level())
	}

	return Route{
		ID:                      uuid.New().String(),
		IntentID:                intentID,
		RouterID:                routerID,
		Steps:                   steps,
		EstimatedCost:           totalCost.String(),
		EstimatedLatencySeconds: totalLatency,
		PrivacyScore:            privacy,
		TrustScore:              trust,
		ExpiresAt:               expiresAt,
	}, nil
}

// Refreshed returns a new route with the same id, intent, router and step
// identity, carrying re-quoted step pricing and a new expiry. Aggregates are
// recomputed from the steps.
func (r Route) Refreshed(steps []Step, expiresAt int64) (Route, error) {
	if len(steps) != len(r.Steps) {
		return Route{}, fmt.Errorf("refresh changed step count from %d to %d", len(r.Steps), len(steps))
	}

	totalCost := decimal.Zero
	var totalLatency int64
	privacy := intent.LevelHigh
	trust := intent.LevelHigh

	for i := range steps {
		steps[i].Sequence = i
		cost, err := decimal.NewFromString(steps[i].EstimatedCost)
		if err != nil {
			return Route{}, fmt.Errorf("step %d: invalid cost %q: %w", i, steps[i].EstimatedCost, err)
		}
		totalCost = totalCost.Add(cost)
		totalLatency += steps[i].EstimatedLatencySeconds
		privacy = minLevel(privacy, steps[i].PrivacyScore)
		trust = minLevel(trust, steps[i].TrustModel.Level())
	}

	refreshed := r
	refreshed.Steps = steps
	refreshed.EstimatedCost = totalCost.String()
	refreshed.EstimatedLatencySeconds = totalLatency
	refreshed.PrivacyScore = privacy
	refreshed.TrustScore = trust
	refreshed.ExpiresAt = expiresAt
	return refreshed, nil
}

// Expired reports whether the route's quote has lapsed
func (r Route) Expired(now time.Time) bool {
	return r.ExpiresAt < now.UnixMilli()
}

// Validate checks the route's structural invariants: non-empty contiguous
// steps and a privacy score equal to the minimum across steps
func (r Route) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("route %s has no steps", r.ID)
	}
	privacy := intent.LevelHigh
	for i, s := range r.Steps {
		if s.Sequence != i {
			return fmt.Errorf("route %s: step sequence %d at position %d", r.ID, s.Sequence, i)
		}
		privacy = minLevel(privacy, s.PrivacyScore)
	}
	if r.PrivacyScore != privacy {
		return fmt.Errorf("route %s: privacy score %s does not match step minimum %s",
			r.ID, r.PrivacyScore, privacy)
	}
	return nil
}

// levelRank orders levels for minimum computation
func levelRank(l intent.Level) int {
	switch l {
	case intent.LevelHigh:
		return 3
	case intent.LevelMedium:
		return 2
	default:
		return 1
	}
}

func minLevel(a, b intent.Level) intent.Level {
	if levelRank(b) < levelRank(a) {
		return b
	}
	return a
}
