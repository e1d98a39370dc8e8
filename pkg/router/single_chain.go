package router

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chainroute/pkg/intent"
)

// ChainQuote is the fee and latency profile a single-chain router quotes
// for one chain
type ChainQuote struct {
	Fee            string // flat network fee, canonical smallest units
	LatencySeconds int64
	TrustModel     TrustModel
	Shielded       bool // chain supports shielded transfers
}

// SingleChainRouter proposes direct same-chain routes from a static quote
// table. Cross-chain intents yield an empty result, never an error.
type SingleChainRouter struct {
	id              string
	quotes          map[string]ChainQuote
	quoteTTL        time.Duration
	maxFeeDeviation float64
	now             func() time.Time
}

// SingleChainOption customizes a single-chain router
type SingleChainOption func(*SingleChainRouter)

// WithClock overrides the router's time source
func WithClock(now func() time.Time) SingleChainOption {
	return func(r *SingleChainRouter) { r.now = now }
}

// WithFeeDeviation sets the re-quote deviation fraction beyond which a
// route fails validation
func WithFeeDeviation(fraction float64) SingleChainOption {
	return func(r *SingleChainRouter) { r.maxFeeDeviation = fraction }
}

// NewSingleChainRouter creates a single-chain router quoting the given chains
func NewSingleChainRouter(id string, quotes map[string]ChainQuote, quoteTTL time.Duration, opts ...SingleChainOption) *SingleChainRouter {
	r := &SingleChainRouter{
		id:              id,
		quotes:          quotes,
		quoteTTL:        quoteTTL,
		maxFeeDeviation: 0.10,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SingleChainRouter) ID() string { return r.id }

func (r *SingleChainRouter) SupportedChains() []string {
	chains := make([]string, 0, len(r.quotes))
	for chain := range r.quotes {
		chains = append(chains, chain)
	}
	return chains
}

// FindRoutes proposes at most one direct route for a same-chain intent
func (r *SingleChainRouter) FindRoutes(ctx context.Context, it *intent.Intent) ([]Route, error) {
	if it == nil {
		return nil, fmt.Errorf("%w: nil intent", intent.ErrInvalidIntent)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.CrossChain() || it.Destination.Chain != it.SourceAsset.Chain {
		return nil, nil
	}
	if it.Type == intent.TypeBridge {
		return nil, nil
	}

	quote, ok := r.quotes[it.SourceAsset.Chain]
	if !ok {
		return nil, nil
	}

	step := Step{
		Type:                    stepTypeFor(it.Type),
		Provider:                "native-" + it.SourceAsset.Chain,
		InputAsset:              it.SourceAsset,
		OutputAsset:             it.TargetAsset,
		InputAmount:             it.Amount.Value,
		EstimatedCost:           quote.Fee,
		EstimatedLatencySeconds: quote.LatencySeconds,
		TrustModel:              quote.TrustModel,
		PrivacyScore:            privacyFor(quote, it.Destination),
	}

	route, err := NewRoute(it.ID, r.id, []Step{step}, r.now().Add(r.quoteTTL).UnixMilli())
	if err != nil {
		return nil, err
	}
	return []Route{route}, nil
}

// ValidateRoute checks expiry, chain availability and fee drift
func (r *SingleChainRouter) ValidateRoute(ctx context.Context, route Route) bool {
	if route.Expired(r.now()) {
		return false
	}
	for _, step := range route.Steps {
		quote, ok := r.quotes[step.InputAsset.Chain]
		if !ok {
			return false
		}
		if feeDeviation(step.EstimatedCost, quote.Fee) > r.maxFeeDeviation {
			return false
		}
	}
	return true
}

// RefreshQuote re-prices every step from the current quote table
func (r *SingleChainRouter) RefreshQuote(ctx context.Context, route Route) (Route, error) {
	if err := ctx.Err(); err != nil {
		return Route{}, err
	}

	steps := make([]Step, len(route.Steps))
	copy(steps, route.Steps)
	for i := range steps {
		quote, ok := r.quotes[steps[i].InputAsset.Chain]
		if !ok {
			return Route{}, fmt.Errorf("%w: chain %s no longer quoted", ErrRouteUnavailable, steps[i].InputAsset.Chain)
		}
		steps[i].EstimatedCost = quote.Fee
		steps[i].EstimatedLatencySeconds = quote.LatencySeconds
	}

	return route.Refreshed(steps, r.now().Add(r.quoteTTL).UnixMilli())
}

// SetQuote replaces the quote for one chain. Used when fee conditions move.
func (r *SingleChainRouter) SetQuote(chain string, quote ChainQuote) {
	r.quotes[chain] = quote
}

// DropChain removes a chain from the quote table
func (r *SingleChainRouter) DropChain(chain string) {
	delete(r.quotes, chain)
}

func stepTypeFor(t intent.Type) StepType {
	switch t {
	case intent.TypeReceive:
		return StepReceive
	case intent.TypeSwap:
		return StepSwap
	default:
		return StepSend
	}
}

// privacyFor grades a direct transfer: shielded destination on a
// shielded-pool chain is HIGH, a transparent destination on such a chain is
// MEDIUM, everything else is LOW
func privacyFor(quote ChainQuote, destination intent.Address) intent.Level {
	if !quote.Shielded {
		return intent.LevelLow
	}
	if destination.Type == intent.AddressShielded {
		return intent.LevelHigh
	}
	return intent.LevelMedium
}

// feeDeviation returns |current-quoted| / quoted, treating unparseable or
// zero baselines as maximal drift
func feeDeviation(quoted, current string) float64 {
	q, err := decimal.NewFromString(quoted)
	if err != nil || q.IsZero() {
		c, cerr := decimal.NewFromString(current)
		if cerr == nil && c.IsZero() && err == nil {
			return 0
		}
		return 1
	}
	c, err := decimal.NewFromString(current)
	if err != nil {
		return 1
	}
	dev, _ := c.Sub(q).Abs().Div(q).Float64()
	return dev
}
