package router

import (
	"context"
	"fmt"
	"time"

	"chainroute/pkg/intent"
)

// BridgeLink is one bridge provider's path between two chains
type BridgeLink struct {
	Provider       string
	FromChain      string
	ToChain        string
	Fee            string // canonical smallest units
	LatencySeconds int64
	TrustModel     TrustModel
	Privacy        intent.Level
}

// CrossChainRouter proposes bridge-aware routes, including two-hop paths
// through an intermediate chain when no direct bridge exists. Same-chain
// intents yield an empty result.
type CrossChainRouter struct {
	id              string
	links           []BridgeLink
	swapQuotes      map[string]ChainQuote // per-chain quotes for the swap leg
	quoteTTL        time.Duration
	maxFeeDeviation float64
	now             func() time.Time
}

// CrossChainOption customizes a cross-chain router
type CrossChainOption func(*CrossChainRouter)

// WithCrossChainClock overrides the router's time source
func WithCrossChainClock(now func() time.Time) CrossChainOption {
	return func(r *CrossChainRouter) { r.now = now }
}

// NewCrossChainRouter creates a bridge-aware router
func NewCrossChainRouter(id string, links []BridgeLink, swapQuotes map[string]ChainQuote, quoteTTL time.Duration, opts ...CrossChainOption) *CrossChainRouter {
	r := &CrossChainRouter{
		id:              id,
		links:           links,
		swapQuotes:      swapQuotes,
		quoteTTL:        quoteTTL,
		maxFeeDeviation: 0.10,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CrossChainRouter) ID() string { return r.id }

func (r *CrossChainRouter) SupportedChains() []string {
	seen := make(map[string]bool)
	var chains []string
	for _, l := range r.links {
		for _, c := range []string{l.FromChain, l.ToChain} {
			if !seen[c] {
				seen[c] = true
				chains = append(chains, c)
			}
		}
	}
	return chains
}

// FindRoutes proposes one route per viable bridge path: every direct link
// between the two chains, plus two-hop paths when no direct link exists
func (r *CrossChainRouter) FindRoutes(ctx context.Context, it *intent.Intent) ([]Route, error) {
	if it == nil {
		return nil, fmt.Errorf("%w: nil intent", intent.ErrInvalidIntent)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !it.CrossChain() {
		return nil, nil
	}

	var routes []Route
	for _, link := range r.directLinks(it.SourceAsset.Chain, it.TargetAsset.Chain) {
		route, ok := r.buildRoute(it, []BridgeLink{link})
		if ok {
			routes = append(routes, route)
		}
	}

	if len(routes) == 0 {
		for _, pair := range r.twoHopPaths(it.SourceAsset.Chain, it.TargetAsset.Chain) {
			route, ok := r.buildRoute(it, pair)
			if ok {
				routes = append(routes, route)
			}
		}
	}

	return routes, nil
}

func (r *CrossChainRouter) directLinks(from, to string) []BridgeLink {
	var links []BridgeLink
	for _, l := range r.links {
		if l.FromChain == from && l.ToChain == to {
			links = append(links, l)
		}
	}
	return links
}

func (r *CrossChainRouter) twoHopPaths(from, to string) [][]BridgeLink {
	var paths [][]BridgeLink
	for _, first := range r.links {
		if first.FromChain != from || first.ToChain == to {
			continue
		}
		for _, second := range r.links {
			if second.FromChain == first.ToChain && second.ToChain == to {
				paths = append(paths, []BridgeLink{first, second})
			}
		}
	}
	return paths
}

// buildRoute assembles bridge steps for the path and a trailing swap step
// when the target token differs from the bridged token
func (r *CrossChainRouter) buildRoute(it *intent.Intent, path []BridgeLink) (Route, bool) {
	var steps []Step
	carried := it.SourceAsset

	for _, link := range path {
		bridged := carried
		bridged.Chain = link.ToChain
		steps = append(steps, Step{
			Type:                    StepBridge,
			Provider:                link.Provider,
			InputAsset:              carried,
			OutputAsset:             bridged,
			InputAmount:             it.Amount.Value,
			EstimatedCost:           link.Fee,
			EstimatedLatencySeconds: link.LatencySeconds,
			TrustModel:              link.TrustModel,
			PrivacyScore:            link.Privacy,
		})
		carried = bridged
	}

	if carried.Token != it.TargetAsset.Token {
		quote, ok := r.swapQuotes[it.TargetAsset.Chain]
		if !ok {
			return Route{}, false
		}
		steps = append(steps, Step{
			Type:                    StepSwap,
			Provider:                "dex-" + it.TargetAsset.Chain,
			InputAsset:              carried,
			OutputAsset:             it.TargetAsset,
			InputAmount:             it.Amount.Value,
			EstimatedCost:           quote.Fee,
			EstimatedLatencySeconds: quote.LatencySeconds,
			TrustModel:              quote.TrustModel,
			PrivacyScore:            intent.LevelLow, // on-chain swaps are fully linkable
		})
	}

	route, err := NewRoute(it.ID, r.id, steps, r.now().Add(r.quoteTTL).UnixMilli())
	if err != nil {
		return Route{}, false
	}
	return route, true
}

// ValidateRoute checks expiry and that every step's provider still quotes
// the path at a price within the deviation threshold
func (r *CrossChainRouter) ValidateRoute(ctx context.Context, route Route) bool {
	if route.Expired(r.now()) {
		return false
	}
	for _, step := range route.Steps {
		fee, ok := r.currentFee(step)
		if !ok {
			return false
		}
		if feeDeviation(step.EstimatedCost, fee) > r.maxFeeDeviation {
			return false
		}
	}
	return true
}

// RefreshQuote re-prices every step from the current link and swap tables
func (r *CrossChainRouter) RefreshQuote(ctx context.Context, route Route) (Route, error) {
	if err := ctx.Err(); err != nil {
		return Route{}, err
	}

	steps := make([]Step, len(route.Steps))
	copy(steps, route.Steps)
	for i := range steps {
		switch steps[i].Type {
		case StepBridge:
			link, ok := r.findLink(steps[i].Provider, steps[i].InputAsset.Chain, steps[i].OutputAsset.Chain)
			if !ok {
				return Route{}, fmt.Errorf("%w: bridge %s no longer links %s -> %s",
					ErrRouteUnavailable, steps[i].Provider, steps[i].InputAsset.Chain, steps[i].OutputAsset.Chain)
			}
			steps[i].EstimatedCost = link.Fee
			steps[i].EstimatedLatencySeconds = link.LatencySeconds
		case StepSwap:
			quote, ok := r.swapQuotes[steps[i].OutputAsset.Chain]
			if !ok {
				return Route{}, fmt.Errorf("%w: no swap quote on %s", ErrRouteUnavailable, steps[i].OutputAsset.Chain)
			}
			steps[i].EstimatedCost = quote.Fee
			steps[i].EstimatedLatencySeconds = quote.LatencySeconds
		}
	}

	return route.Refreshed(steps, r.now().Add(r.quoteTTL).UnixMilli())
}

// RemoveLink withdraws a bridge path, e.g. when the provider pulls liquidity
func (r *CrossChainRouter) RemoveLink(provider, from, to string) {
	kept := r.links[:0]
	for _, l := range r.links {
		if l.Provider == provider && l.FromChain == from && l.ToChain == to {
			continue
		}
		kept = append(kept, l)
	}
	r.links = kept
}

func (r *CrossChainRouter) currentFee(step Step) (string, bool) {
	switch step.Type {
	case StepBridge:
		link, ok := r.findLink(step.Provider, step.InputAsset.Chain, step.OutputAsset.Chain)
		if !ok {
			return "", false
		}
		return link.Fee, true
	case StepSwap:
		quote, ok := r.swapQuotes[step.OutputAsset.Chain]
		if !ok {
			return "", false
		}
		return quote.Fee, true
	default:
		return step.EstimatedCost, true
	}
}

func (r *CrossChainRouter) findLink(provider, from, to string) (BridgeLink, bool) {
	for _, l := range r.links {
		if l.Provider == provider && l.FromChain == from && l.ToChain == to {
			return l, true
		}
	}
	return BridgeLink{}, false
}
