// Package routing wires the intent validator, router registry, scorer and
// route refresher into the discovery pipeline:
// validate -> discover -> rank -> revalidate -> (refresh | re-route).
package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"chainroute/pkg/intent"
	"chainroute/pkg/router"
	"chainroute/pkg/scoring"
)

// ErrRoutingFailed marks an exhausted routing attempt: discovery, refresh
// and the bounded re-route retries all failed to produce a viable route
var ErrRoutingFailed = errors.New("routing failed to produce a viable route")

// Pipeline drives an intent from validation through route selection
type Pipeline struct {
	registry   *router.Registry
	scorer     scoring.Scorer
	strategy   string
	maxRetries int
	topN       int
	log        *slog.Logger
	now        func() time.Time
}

// Options configure a pipeline
type Options struct {
	Registry   *router.Registry
	Scorer     scoring.Scorer
	Strategy   string // comparator strategy, defaults to weighted
	MaxRetries int    // re-discovery attempts after a failed refresh
	TopN       int    // ranked routes surfaced to the caller
	Logger     *slog.Logger
	Now        func() time.Time
}

// New creates a pipeline
func New(opts Options) *Pipeline {
	p := &Pipeline{
		registry:   opts.Registry,
		scorer:     opts.Scorer,
		strategy:   opts.Strategy,
		maxRetries: opts.MaxRetries,
		topN:       opts.TopN,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if p.strategy == "" {
		p.strategy = scoring.StrategyWeighted
	}
	if p.maxRetries == 0 {
		p.maxRetries = 2
	}
	if p.topN <= 0 {
		p.topN = 5
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Plan validates the intent, discovers candidate routes across all
// applicable routers, drops routes that fail revalidation or the caller's
// preference limits, and returns the best-N ranked routes. An empty result
// is a normal outcome meaning routing produced no options.
func (p *Pipeline) Plan(ctx context.Context, it *intent.Intent, prefs intent.Preferences) ([]router.Route, error) {
	if it.Status == intent.StatusCreated {
		if err := it.TransitionTo(intent.StatusNormalizing); err != nil {
			return nil, err
		}
	}
	if it.Status == intent.StatusNormalizing {
		if err := it.TransitionTo(intent.StatusValidating); err != nil {
			return nil, err
		}
	}

	if err := it.Validate(prefs); err != nil {
		it.MarkFailed(errorCode(err))
		return nil, err
	}
	if it.Expired(p.now()) {
		it.MarkFailed(intent.CodeInvalidIntent)
		return nil, fmt.Errorf("%w: intent expired", intent.ErrInvalidIntent)
	}

	if err := it.TransitionTo(intent.StatusRouting); err != nil {
		return nil, err
	}

	ranked, err := p.discoverAndRank(ctx, it, prefs)
	if err != nil {
		return nil, err
	}
	if len(ranked) > p.topN {
		ranked = ranked[:p.topN]
	}
	return ranked, nil
}

// Confirm revalidates the selected route immediately before execution. A
// route failing revalidation gets exactly one refresh attempt; if the
// refresh fails too, the pipeline re-enters ROUTING to discover an
// alternative, bounded by the configured retry count.
func (p *Pipeline) Confirm(ctx context.Context, it *intent.Intent, selected router.Route, prefs intent.Preferences) (router.Route, error) {
	origin, ok := p.registry.Get(selected.RouterID)
	if !ok {
		return router.Route{}, fmt.Errorf("%w: router %q not registered", ErrRoutingFailed, selected.RouterID)
	}

	if origin.ValidateRoute(ctx, selected) {
		if err := it.TransitionTo(intent.StatusRouteSelected); err != nil {
			return router.Route{}, err
		}
		return selected, nil
	}

	p.log.Info("selected route failed revalidation, refreshing",
		"intent", it.ID, "route", selected.ID, "router", selected.RouterID)

	refreshed, err := origin.RefreshQuote(ctx, selected)
	if err == nil && origin.ValidateRoute(ctx, refreshed) {
		if terr := it.TransitionTo(intent.StatusRouteSelected); terr != nil {
			return router.Route{}, terr
		}
		return refreshed, nil
	}
	if err != nil {
		p.log.Warn("quote refresh failed", "intent", it.ID, "route", selected.ID, "error", err)
	}

	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return router.Route{}, err
		}
		if err := it.TransitionTo(intent.StatusRouting); err != nil {
			return router.Route{}, err
		}

		p.log.Info("re-entering discovery", "intent", it.ID, "attempt", attempt)
		ranked, err := p.discoverAndRank(ctx, it, prefs)
		if err != nil {
			return router.Route{}, err
		}
		if len(ranked) == 0 {
			continue
		}

		best := ranked[0]
		if origin, ok := p.registry.Get(best.RouterID); ok && origin.ValidateRoute(ctx, best) {
			if err := it.TransitionTo(intent.StatusRouteSelected); err != nil {
				return router.Route{}, err
			}
			return best, nil
		}
	}

	it.MarkFailed(intent.CodeRoutingFailed)
	return router.Route{}, fmt.Errorf("%w: no alternative after %d retries", ErrRoutingFailed, p.maxRetries)
}

// discoverAndRank runs one discovery fan-out and returns the live,
// preference-conforming routes in rank order
func (p *Pipeline) discoverAndRank(ctx context.Context, it *intent.Intent, prefs intent.Preferences) ([]router.Route, error) {
	result := p.registry.Discover(ctx, it)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range result.Failures {
		p.log.Warn("router contributed no routes", "intent", it.ID, "router", f.RouterID, "error", f.Err)
	}

	live := result.Routes[:0:0]
	for _, route := range result.Routes {
		origin, ok := p.registry.Get(route.RouterID)
		if !ok || !origin.ValidateRoute(ctx, route) {
			continue
		}
		if route.Validate() != nil {
			continue
		}
		live = append(live, route)
	}

	filtered := applyPreferences(live, prefs)

	sc := p.scorer.ForPreferences(prefs)
	cmp, err := scoring.NewComparator(p.strategy, sc)
	if err != nil {
		return nil, err
	}
	return scoring.Rank(filtered, cmp), nil
}

// applyPreferences drops routes outside the caller's hard limits: blocked
// providers, privacy floor, maximum cost and latency
func applyPreferences(routes []router.Route, prefs intent.Preferences) []router.Route {
	var maxCost *decimal.Decimal
	if prefs.MaxCost != "" {
		if d, err := decimal.NewFromString(prefs.MaxCost); err == nil {
			maxCost = &d
		}
	}

	kept := routes[:0:0]
	for _, route := range routes {
		if prefs.PrivacyLevel.Valid() && scoring.LevelValue(route.PrivacyScore) < scoring.LevelValue(prefs.PrivacyLevel) {
			continue
		}
		if prefs.MaxLatencySeconds > 0 && route.EstimatedLatencySeconds > prefs.MaxLatencySeconds {
			continue
		}
		if maxCost != nil {
			if cost, err := decimal.NewFromString(route.EstimatedCost); err != nil || cost.GreaterThan(*maxCost) {
				continue
			}
		}
		if blockedProvider(route, prefs) {
			continue
		}
		kept = append(kept, route)
	}
	return kept
}

func blockedProvider(route router.Route, prefs intent.Preferences) bool {
	for _, step := range route.Steps {
		if prefs.Blocked(step.Provider) {
			return true
		}
	}
	return false
}

// errorCode maps an error onto the intent failure taxonomy
func errorCode(err error) string {
	switch {
	case errors.Is(err, intent.ErrUnsupportedIntent):
		return intent.CodeUnsupportedIntent
	case errors.Is(err, intent.ErrInvalidIntent):
		return intent.CodeInvalidIntent
	default:
		return intent.CodeRoutingFailed
	}
}
