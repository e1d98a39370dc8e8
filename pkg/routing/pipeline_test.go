package routing

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainroute/pkg/intent"
	"chainroute/pkg/router"
)

// scriptedRouter is a scriptable router.Router for pipeline tests
type scriptedRouter struct {
	id     string
	chains []string
	routes []router.Route
	err    error

	validateFn func(router.Route) bool
	refreshFn  func(router.Route) (router.Route, error)

	mu            sync.Mutex
	findCalls     int
	validateCalls int
	refreshCalls  int
}

func (s *scriptedRouter) ID() string                { return s.id }
func (s *scriptedRouter) SupportedChains() []string { return s.chains }

func (s *scriptedRouter) FindRoutes(ctx context.Context, it *intent.Intent) ([]router.Route, error) {
	s.mu.Lock()
	s.findCalls++
	s.mu.Unlock()
	return s.routes, s.err
}

func (s *scriptedRouter) ValidateRoute(ctx context.Context, r router.Route) bool {
	s.mu.Lock()
	s.validateCalls++
	s.mu.Unlock()
	if s.validateFn != nil {
		return s.validateFn(r)
	}
	return true
}

func (s *scriptedRouter) RefreshQuote(ctx context.Context, r router.Route) (router.Route, error) {
	s.mu.Lock()
	s.refreshCalls++
	s.mu.Unlock()
	if s.refreshFn != nil {
		return s.refreshFn(r)
	}
	return r, nil
}

func shieldedIntent(t *testing.T) *intent.Intent {
	t.Helper()
	amount, err := intent.NewAmount("100", "ZEC", 8)
	require.NoError(t, err)
	zec := intent.NewAsset("zcash", "ZEC", 8)
	dest := intent.Address{
		Value: "zs1" + strings.Repeat("q", 75),
		Chain: "zcash",
		Type:  intent.AddressShielded,
	}
	return intent.New(intent.TypeSend, zec, zec, dest, amount)
}

func routeFrom(t *testing.T, routerID, provider string, privacy intent.Level, trust router.TrustModel, fee string, latency int64) router.Route {
	t.Helper()
	step := router.Step{
		Type:                    router.StepSend,
		Provider:                provider,
		InputAsset:              intent.NewAsset("zcash", "ZEC", 8),
		OutputAsset:             intent.NewAsset("zcash", "ZEC", 8),
		InputAmount:             "10000000000",
		EstimatedCost:           fee,
		EstimatedLatencySeconds: latency,
		TrustModel:              trust,
		PrivacyScore:            privacy,
	}
	route, err := router.NewRoute("intent-1", routerID, []router.Step{step}, time.Now().Add(time.Minute).UnixMilli())
	require.NoError(t, err)
	return route
}

func newTestPipeline(t *testing.T, routers ...router.Router) *Pipeline {
	t.Helper()
	reg := router.NewRegistry(time.Second, nil)
	for _, r := range routers {
		require.NoError(t, reg.Register(r))
	}
	return New(Options{Registry: reg})
}

func TestPlanRanksDiscoveredRoutes(t *testing.T) {
	private := routeFrom(t, "stub", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)
	public := routeFrom(t, "stub", "relay-zcash", intent.LevelLow, router.TrustNonCustodial, "500", 20)
	stub := &scriptedRouter{id: "stub", chains: []string{"zcash"}, routes: []router.Route{public, private}}

	p := newTestPipeline(t, stub)
	it := shieldedIntent(t)

	routes, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, private.ID, routes[0].ID, "the private route ranks first under default weights")
	assert.Equal(t, intent.StatusRouting, it.Status)
}

func TestPlanWalksLifecycle(t *testing.T) {
	stub := &scriptedRouter{id: "stub", chains: []string{"zcash"}}
	p := newTestPipeline(t, stub)
	it := shieldedIntent(t)
	require.Equal(t, intent.StatusCreated, it.Status)

	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, intent.StatusRouting, it.Status)
}

func TestPlanEmptyDiscoveryIsNotAnError(t *testing.T) {
	stub := &scriptedRouter{id: "stub", chains: []string{"zcash"}}
	p := newTestPipeline(t, stub)
	it := shieldedIntent(t)

	routes, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err, "no routes is a normal outcome")
	assert.Empty(t, routes)
	assert.False(t, it.Status.Terminal())
}

func TestPlanFailsInvalidIntent(t *testing.T) {
	p := newTestPipeline(t, &scriptedRouter{id: "stub", chains: []string{"zcash"}})
	it := shieldedIntent(t)
	it.Amount.Value = "0"

	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.ErrorIs(t, err, intent.ErrInvalidIntent)
	assert.Equal(t, intent.StatusFailed, it.Status)
	assert.Equal(t, intent.CodeInvalidIntent, it.FailureCode)
}

func TestPlanFailsUnsupportedIntent(t *testing.T) {
	p := newTestPipeline(t, &scriptedRouter{id: "stub", chains: []string{"zcash"}})
	it := shieldedIntent(t)
	it.TargetAsset = intent.NewAsset("near", "USDC", 6)
	it.Destination = intent.Address{Value: "alice.near", Chain: "near", Type: intent.AddressAccount}
	it.Type = intent.TypeSwap

	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.ErrorIs(t, err, intent.ErrUnsupportedIntent)
	assert.Equal(t, intent.StatusFailed, it.Status)
	assert.Equal(t, intent.CodeUnsupportedIntent, it.FailureCode)
}

func TestPlanFailsExpiredIntent(t *testing.T) {
	p := newTestPipeline(t, &scriptedRouter{id: "stub", chains: []string{"zcash"}})
	it := shieldedIntent(t)
	it.ExpiresAt = time.Now().Add(-time.Minute).UnixMilli()

	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.ErrorIs(t, err, intent.ErrInvalidIntent)
	assert.Equal(t, intent.StatusFailed, it.Status)
}

func TestPlanDropsRoutesFailingRevalidation(t *testing.T) {
	stale := routeFrom(t, "stub", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)
	stub := &scriptedRouter{
		id: "stub", chains: []string{"zcash"},
		routes:     []router.Route{stale},
		validateFn: func(router.Route) bool { return false },
	}
	p := newTestPipeline(t, stub)

	routes, err := p.Plan(context.Background(), shieldedIntent(t), intent.Preferences{})
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestPlanAppliesPreferenceLimits(t *testing.T) {
	private := routeFrom(t, "stub", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)
	public := routeFrom(t, "stub", "relay-zcash", intent.LevelLow, router.TrustNonCustodial, "100", 10)
	slow := routeFrom(t, "stub", "batch-zcash", intent.LevelHigh, router.TrustTrustless, "50", 7200)
	pricey := routeFrom(t, "stub", "express-zcash", intent.LevelHigh, router.TrustTrustless, "99000", 5)
	stub := &scriptedRouter{
		id: "stub", chains: []string{"zcash"},
		routes: []router.Route{private, public, slow, pricey},
	}
	p := newTestPipeline(t, stub)

	routes, err := p.Plan(context.Background(), shieldedIntent(t), intent.Preferences{
		PrivacyLevel:      intent.LevelMedium,
		MaxLatencySeconds: 3600,
		MaxCost:           "50000",
	})
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, private.ID, routes[0].ID)
}

func TestPlanHonorsBlockedProviders(t *testing.T) {
	route := routeFrom(t, "stub", "fastlane-custodial", intent.LevelHigh, router.TrustTrustless, "10", 5)
	stub := &scriptedRouter{id: "stub", chains: []string{"zcash"}, routes: []router.Route{route}}
	p := newTestPipeline(t, stub)

	routes, err := p.Plan(context.Background(), shieldedIntent(t), intent.Preferences{
		BlockedProviders: []string{"fastlane-custodial"},
	})
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestPlanTruncatesToTopN(t *testing.T) {
	var candidates []router.Route
	for _, provider := range []string{"a", "b", "c", "d"} {
		candidates = append(candidates, routeFrom(t, "stub", provider, intent.LevelHigh, router.TrustTrustless, "10", 5))
	}
	stub := &scriptedRouter{id: "stub", chains: []string{"zcash"}, routes: candidates}

	reg := router.NewRegistry(time.Second, nil)
	require.NoError(t, reg.Register(stub))
	p := New(Options{Registry: reg, TopN: 2})

	routes, err := p.Plan(context.Background(), shieldedIntent(t), intent.Preferences{})
	require.NoError(t, err)
	assert.Len(t, routes, 2)
}

func TestConfirmAcceptsLiveRoute(t *testing.T) {
	route := routeFrom(t, "stub", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)
	stub := &scriptedRouter{id: "stub", chains: []string{"zcash"}, routes: []router.Route{route}}
	p := newTestPipeline(t, stub)
	it := shieldedIntent(t)

	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err)

	confirmed, err := p.Confirm(context.Background(), it, route, intent.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, route.ID, confirmed.ID)
	assert.Equal(t, intent.StatusRouteSelected, it.Status)
	assert.Equal(t, 0, stub.refreshCalls, "a live route is not refreshed")
}

func TestConfirmRefreshesStaleRouteExactlyOnce(t *testing.T) {
	route := routeFrom(t, "stub", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)

	repriced := route
	stub := &scriptedRouter{id: "stub", chains: []string{"zcash"}, routes: []router.Route{route}}

	p := newTestPipeline(t, stub)
	it := shieldedIntent(t)
	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err)

	// The quote lapses between planning and confirmation: revalidation
	// fails once, then the refreshed quote validates.
	var staleOnce sync.Once
	stub.validateFn = func(r router.Route) bool {
		stale := false
		staleOnce.Do(func() { stale = true })
		return !stale
	}
	stub.refreshFn = func(r router.Route) (router.Route, error) {
		refreshed, rerr := r.Refreshed(r.Steps, time.Now().Add(2*time.Minute).UnixMilli())
		require.NoError(t, rerr)
		repriced = refreshed
		return refreshed, nil
	}

	confirmed, err := p.Confirm(context.Background(), it, route, intent.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, 1, stub.refreshCalls, "a stale route gets exactly one refresh")
	assert.Equal(t, route.ID, confirmed.ID, "refresh preserves route identity")
	assert.Equal(t, repriced.ExpiresAt, confirmed.ExpiresAt)
	assert.Equal(t, intent.StatusRouteSelected, it.Status)
}

func TestConfirmReroutesWhenRefreshFails(t *testing.T) {
	selected := routeFrom(t, "flaky", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)
	flaky := &scriptedRouter{
		id: "flaky", chains: []string{"zcash"},
		validateFn: func(router.Route) bool { return false },
		refreshFn: func(router.Route) (router.Route, error) {
			return router.Route{}, router.ErrRouteUnavailable
		},
	}

	alternative := routeFrom(t, "backup", "relay-zcash", intent.LevelMedium, router.TrustTrustless, "2000", 60)
	backup := &scriptedRouter{id: "backup", chains: []string{"zcash"}, routes: []router.Route{alternative}}

	p := newTestPipeline(t, flaky, backup)
	it := shieldedIntent(t)
	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err)

	confirmed, err := p.Confirm(context.Background(), it, selected, intent.Preferences{})
	require.NoError(t, err)
	assert.Equal(t, alternative.ID, confirmed.ID, "re-discovery found an alternative")
	assert.Equal(t, 1, flaky.refreshCalls)
	assert.Equal(t, intent.StatusRouteSelected, it.Status)
}

func TestConfirmExhaustsBoundedRetries(t *testing.T) {
	selected := routeFrom(t, "flaky", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)
	flaky := &scriptedRouter{
		id: "flaky", chains: []string{"zcash"},
		routes:     []router.Route{selected},
		validateFn: func(router.Route) bool { return false },
		refreshFn: func(router.Route) (router.Route, error) {
			return router.Route{}, router.ErrRouteUnavailable
		},
	}

	reg := router.NewRegistry(time.Second, nil)
	require.NoError(t, reg.Register(flaky))
	p := New(Options{Registry: reg, MaxRetries: 2})

	it := shieldedIntent(t)
	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err)
	findsAfterPlan := flaky.findCalls

	_, err = p.Confirm(context.Background(), it, selected, intent.Preferences{})
	require.ErrorIs(t, err, ErrRoutingFailed)
	assert.Equal(t, intent.StatusFailed, it.Status)
	assert.Equal(t, intent.CodeRoutingFailed, it.FailureCode)
	assert.Equal(t, 2, flaky.findCalls-findsAfterPlan, "re-discovery is bounded by the retry budget")
}

func TestConfirmUnknownRouter(t *testing.T) {
	p := newTestPipeline(t, &scriptedRouter{id: "stub", chains: []string{"zcash"}})
	it := shieldedIntent(t)
	_, err := p.Plan(context.Background(), it, intent.Preferences{})
	require.NoError(t, err)

	orphan := routeFrom(t, "vanished", "native-zcash", intent.LevelHigh, router.TrustTrustless, "1000", 75)
	_, err = p.Confirm(context.Background(), it, orphan, intent.Preferences{})
	require.ErrorIs(t, err, ErrRoutingFailed)
}
