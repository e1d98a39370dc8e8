package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainroute/pkg/intent"
)

func TestNewPrivacyRouterArguments(t *testing.T) {
	_, err := NewPrivacyRouter(nil, intent.LevelHigh)
	require.Error(t, err)

	_, err = NewPrivacyRouter(&stubRouter{id: "inner"}, intent.Level("EXTREME"))
	require.Error(t, err)
}

func TestPrivacyRouterIdentity(t *testing.T) {
	inner := &stubRouter{id: "cross-chain", chains: []string{"zcash", "near"}}
	p, err := NewPrivacyRouter(inner, intent.LevelMedium)
	require.NoError(t, err)

	assert.Equal(t, "cross-chain-private", p.ID())
	assert.Equal(t, inner.SupportedChains(), p.SupportedChains())
}

func TestPrivacyRouterFiltersByFloor(t *testing.T) {
	inner := &stubRouter{
		id:     "inner",
		chains: []string{"zcash"},
		routes: []Route{
			stubRoute(t, "inner", intent.LevelHigh),
			stubRoute(t, "inner", intent.LevelMedium),
			stubRoute(t, "inner", intent.LevelLow),
		},
	}
	p, err := NewPrivacyRouter(inner, intent.LevelMedium)
	require.NoError(t, err)

	routes, err := p.FindRoutes(context.Background(), shieldedSendIntent(t))
	require.NoError(t, err)
	require.Len(t, routes, 2, "routes below the floor are dropped")

	for _, route := range routes {
		assert.Equal(t, "inner-private", route.RouterID, "surviving routes carry the decorator identity")
		assert.GreaterOrEqual(t, levelRank(route.PrivacyScore), levelRank(intent.LevelMedium))
	}
}

func TestPrivacyRouterRescoresOverstatedRoutes(t *testing.T) {
	// The inner router claims HIGH on a route whose steps only support LOW
	overstated := stubRoute(t, "inner", intent.LevelLow)
	overstated.PrivacyScore = intent.LevelHigh

	inner := &stubRouter{id: "inner", chains: []string{"zcash"}, routes: []Route{overstated}}
	p, err := NewPrivacyRouter(inner, intent.LevelMedium)
	require.NoError(t, err)

	routes, err := p.FindRoutes(context.Background(), shieldedSendIntent(t))
	require.NoError(t, err)
	assert.Empty(t, routes, "privacy is re-derived from the steps, not taken on trust")
}

func TestPrivacyRouterValidateRoute(t *testing.T) {
	var innerSaw Route
	inner := &stubRouter{
		id:     "inner",
		chains: []string{"zcash"},
		validateFn: func(r Route) bool {
			innerSaw = r
			return true
		},
	}
	p, err := NewPrivacyRouter(inner, intent.LevelMedium)
	require.NoError(t, err)
	ctx := context.Background()

	route := stubRoute(t, "inner-private", intent.LevelHigh)
	assert.True(t, p.ValidateRoute(ctx, route))
	assert.Equal(t, "inner", innerSaw.RouterID, "delegation restores the inner identity")

	low := stubRoute(t, "inner-private", intent.LevelLow)
	assert.False(t, p.ValidateRoute(ctx, low), "routes below the floor fail without reaching the inner router")
}

func TestPrivacyRouterRefreshEnforcesFloor(t *testing.T) {
	degraded := stubRoute(t, "inner", intent.LevelLow)
	inner := &stubRouter{
		id:     "inner",
		chains: []string{"zcash"},
		refreshFn: func(r Route) (Route, error) {
			return degraded, nil
		},
	}
	p, err := NewPrivacyRouter(inner, intent.LevelMedium)
	require.NoError(t, err)

	route := stubRoute(t, "inner-private", intent.LevelHigh)
	_, err = p.RefreshQuote(context.Background(), route)
	require.ErrorIs(t, err, ErrRouteUnavailable, "a refresh that falls below the floor is unavailable")
}

func TestPrivacyRouterRefreshRescores(t *testing.T) {
	inner := &stubRouter{id: "inner", chains: []string{"zcash"}}
	p, err := NewPrivacyRouter(inner, intent.LevelMedium)
	require.NoError(t, err)

	route := stubRoute(t, "inner-private", intent.LevelHigh)
	refreshed, err := p.RefreshQuote(context.Background(), route)
	require.NoError(t, err)
	assert.Equal(t, "inner-private", refreshed.RouterID)
	assert.Equal(t, intent.LevelHigh, refreshed.PrivacyScore)
}

func TestPrivacyRouterOverCrossChain(t *testing.T) {
	cross := NewCrossChainRouter("cross-chain", testLinks(), testQuotes(), time.Minute)
	p, err := NewPrivacyRouter(cross, intent.LevelMedium)
	require.NoError(t, err)
	ctx := context.Background()

	it := crossIntent(t, "ethereum", "USDC", "near", "USDC")
	routes, err := p.FindRoutes(ctx, it)
	require.NoError(t, err)
	require.Len(t, routes, 1, "the custodial LOW-privacy link is filtered out")

	route := routes[0]
	assert.Equal(t, "cross-chain-private", route.RouterID)
	assert.Equal(t, "intents-bridge", route.Steps[0].Provider)

	// Revalidation and refresh flow back through the decorator
	assert.True(t, p.ValidateRoute(ctx, route))
	refreshed, err := p.RefreshQuote(ctx, route)
	require.NoError(t, err)
	assert.Equal(t, route.ID, refreshed.ID)
	assert.Equal(t, "cross-chain-private", refreshed.RouterID)
}
