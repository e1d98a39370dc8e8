package router

import (
	"context"
	"errors"

	"chainroute/pkg/intent"
)

// Router proposes routes for an intent. Routers are untrusted: they receive
// only the intent value, never wallet state, balances or keys, and must be
// side-effect-free with respect to wallet state.
//
// FindRoutes returns an empty slice, not an error, when no route exists.
// Errors are reserved for malformed input and unreachable providers.
type Router interface {
	// ID uniquely identifies the router within a registry
	ID() string

	// SupportedChains lists the chains this router can route on
	SupportedChains() []string

	// FindRoutes proposes zero or more routes for the intent
	FindRoutes(ctx context.Context, it *intent.Intent) ([]Route, error)

	// ValidateRoute reports whether a previously proposed route is still
	// live: unexpired, provider reachable, price within the router's
	// deviation threshold
	ValidateRoute(ctx context.Context, r Route) bool

	// RefreshQuote re-fetches prices and latency for every step, returning
	// a new route that preserves id, steps and provider identity. It fails
	// when the route is no longer constructible.
	RefreshQuote(ctx context.Context, r Route) (Route, error)
}

var (
	// ErrRouterTimeout marks a router that exceeded its discovery deadline.
	// Soft failure: recorded, routing continues with remaining routers.
	ErrRouterTimeout = errors.New("router timed out")

	// ErrRouterConnection marks a router whose backing provider was
	// unreachable. Soft failure, like ErrRouterTimeout.
	ErrRouterConnection = errors.New("router connection failed")

	// ErrRouteUnavailable marks a route that can no longer be constructed,
	// e.g. the provider withdrew liquidity.
	ErrRouteUnavailable = errors.New("route no longer available")
)
