package router

import (
	"context"
	"fmt"

	"chainroute/pkg/intent"
)

// PrivacyRouter decorates an inner router: it filters the inner router's
// routes by a minimum privacy level and re-derives their privacy score from
// the step minimum. It never originates routes itself.
type PrivacyRouter struct {
	inner      Router
	minPrivacy intent.Level
}

// NewPrivacyRouter wraps an inner router with a privacy floor
func NewPrivacyRouter(inner Router, minPrivacy intent.Level) (*PrivacyRouter, error) {
	if inner == nil {
		return nil, fmt.Errorf("privacy router requires an inner router")
	}
	if !minPrivacy.Valid() {
		return nil, fmt.Errorf("invalid privacy level %q", minPrivacy)
	}
	return &PrivacyRouter{inner: inner, minPrivacy: minPrivacy}, nil
}

func (p *PrivacyRouter) ID() string { return p.inner.ID() + "-private" }

func (p *PrivacyRouter) SupportedChains() []string { return p.inner.SupportedChains() }

// FindRoutes returns the inner router's routes that meet the privacy floor,
// re-stamped with this router's identity so that revalidation and refresh
// flow back through the decorator
func (p *PrivacyRouter) FindRoutes(ctx context.Context, it *intent.Intent) ([]Route, error) {
	inner, err := p.inner.FindRoutes(ctx, it)
	if err != nil {
		return nil, err
	}

	var routes []Route
	for _, route := range inner {
		rescored := p.rescore(route)
		if levelRank(rescored.PrivacyScore) < levelRank(p.minPrivacy) {
			continue
		}
		routes = append(routes, rescored)
	}
	return routes, nil
}

func (p *PrivacyRouter) ValidateRoute(ctx context.Context, r Route) bool {
	if levelRank(r.PrivacyScore) < levelRank(p.minPrivacy) {
		return false
	}
	return p.inner.ValidateRoute(ctx, p.unwrap(r))
}

func (p *PrivacyRouter) RefreshQuote(ctx context.Context, r Route) (Route, error) {
	refreshed, err := p.inner.RefreshQuote(ctx, p.unwrap(r))
	if err != nil {
		return Route{}, err
	}
	rescored := p.rescore(refreshed)
	if levelRank(rescored.PrivacyScore) < levelRank(p.minPrivacy) {
		return Route{}, fmt.Errorf("%w: refreshed route fell below privacy floor %s",
			ErrRouteUnavailable, p.minPrivacy)
	}
	return rescored, nil
}

// rescore stamps the decorator's identity and recomputes the route privacy
// from its steps, so an inner router cannot overstate a route's privacy
func (p *PrivacyRouter) rescore(r Route) Route {
	privacy := intent.LevelHigh
	for _, s := range r.Steps {
		privacy = minLevel(privacy, s.PrivacyScore)
	}
	r.RouterID = p.ID()
	r.PrivacyScore = privacy
	return r
}

// unwrap restores the inner router's identity before delegating
func (p *PrivacyRouter) unwrap(r Route) Route {
	r.RouterID = p.inner.ID()
	return r
}
