package router

import (
	"context"
	"fmt"

	"chainroute/pkg/intent"
)

// NullRouter proposes no routes and validates none. It serves as a fallback
// registration target and as a negative-path test double.
type NullRouter struct {
	id string
}

// NewNullRouter creates a null router
func NewNullRouter(id string) *NullRouter {
	return &NullRouter{id: id}
}

func (n *NullRouter) ID() string { return n.id }

func (n *NullRouter) SupportedChains() []string { return nil }

func (n *NullRouter) FindRoutes(ctx context.Context, it *intent.Intent) ([]Route, error) {
	return nil, nil
}

func (n *NullRouter) ValidateRoute(ctx context.Context, r Route) bool {
	return false
}

func (n *NullRouter) RefreshQuote(ctx context.Context, r Route) (Route, error) {
	return Route{}, fmt.Errorf("%w: null router cannot refresh", ErrRouteUnavailable)
}
