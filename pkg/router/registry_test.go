package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainroute/pkg/intent"
)

// stubRouter is a scriptable Router for registry and decorator tests
type stubRouter struct {
	id     string
	chains []string
	routes []Route
	err    error

	delay     time.Duration
	ignoreCtx bool // simulate a router that never checks its context

	validateFn func(Route) bool
	refreshFn  func(Route) (Route, error)

	mu            sync.Mutex
	findCalls     int
	validateCalls int
	refreshCalls  int
}

func (s *stubRouter) ID() string                { return s.id }
func (s *stubRouter) SupportedChains() []string { return s.chains }

func (s *stubRouter) FindRoutes(ctx context.Context, it *intent.Intent) ([]Route, error) {
	s.mu.Lock()
	s.findCalls++
	s.mu.Unlock()

	if s.delay > 0 {
		if s.ignoreCtx {
			time.Sleep(s.delay)
		} else {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}
	return s.routes, s.err
}

func (s *stubRouter) ValidateRoute(ctx context.Context, r Route) bool {
	s.mu.Lock()
	s.validateCalls++
	s.mu.Unlock()
	if s.validateFn != nil {
		return s.validateFn(r)
	}
	return true
}

func (s *stubRouter) RefreshQuote(ctx context.Context, r Route) (Route, error) {
	s.mu.Lock()
	s.refreshCalls++
	s.mu.Unlock()
	if s.refreshFn != nil {
		return s.refreshFn(r)
	}
	return r, nil
}

func stubRoute(t *testing.T, routerID string, privacy intent.Level) Route {
	t.Helper()
	step := bridgeStep("stub-bridge", "zcash", "zcash", "100", 10, TrustTrustless, privacy)
	step.Type = StepSend
	route, err := NewRoute("intent-1", routerID, []Step{step}, time.Now().Add(time.Minute).UnixMilli())
	require.NoError(t, err)
	return route
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry(time.Second, nil)

	require.NoError(t, reg.Register(&stubRouter{id: "a", chains: []string{"zcash"}}))
	require.Error(t, reg.Register(&stubRouter{id: "a"}), "duplicate ids are rejected")

	r, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", r.ID())

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Len(t, reg.Routers(), 1)
}

func TestRegistryFindSupportedRouters(t *testing.T) {
	reg := NewRegistry(time.Second, nil)
	require.NoError(t, reg.Register(&stubRouter{id: "zec", chains: []string{"zcash"}}))
	require.NoError(t, reg.Register(&stubRouter{id: "eth", chains: []string{"ethereum"}}))
	require.NoError(t, reg.Register(&stubRouter{id: "multi", chains: []string{"zcash", "ethereum", "near"}}))

	it := shieldedSendIntent(t)
	supported := reg.FindSupportedRouters(it)

	ids := make([]string, 0, len(supported))
	for _, r := range supported {
		ids = append(ids, r.ID())
	}
	assert.ElementsMatch(t, []string{"zec", "multi"}, ids)
}

func TestDiscoverAggregatesAcrossRouters(t *testing.T) {
	reg := NewRegistry(time.Second, nil)
	require.NoError(t, reg.Register(&stubRouter{
		id: "a", chains: []string{"zcash"},
		routes: []Route{stubRoute(t, "a", intent.LevelHigh)},
	}))
	require.NoError(t, reg.Register(&stubRouter{
		id: "b", chains: []string{"zcash"},
		routes: []Route{stubRoute(t, "b", intent.LevelMedium), stubRoute(t, "b", intent.LevelLow)},
	}))

	result := reg.Discover(context.Background(), shieldedSendIntent(t))
	assert.Len(t, result.Routes, 3)
	assert.Empty(t, result.Failures)
}

func TestDiscoverToleratesPartialFailure(t *testing.T) {
	reg := NewRegistry(time.Second, nil)
	require.NoError(t, reg.Register(&stubRouter{
		id: "healthy", chains: []string{"zcash"},
		routes: []Route{stubRoute(t, "healthy", intent.LevelHigh)},
	}))
	require.NoError(t, reg.Register(&stubRouter{
		id: "broken", chains: []string{"zcash"},
		err: fmt.Errorf("%w: upstream 503", ErrRouterConnection),
	}))

	result := reg.Discover(context.Background(), shieldedSendIntent(t))
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "healthy", result.Routes[0].RouterID)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "broken", result.Failures[0].RouterID)
	assert.ErrorIs(t, result.Failures[0].Err, ErrRouterConnection)
}

func TestDiscoverTimesOutSlowRouters(t *testing.T) {
	reg := NewRegistry(50*time.Millisecond, nil)
	require.NoError(t, reg.Register(&stubRouter{
		id: "fast", chains: []string{"zcash"},
		routes: []Route{stubRoute(t, "fast", intent.LevelHigh)},
	}))
	require.NoError(t, reg.Register(&stubRouter{
		id: "slow", chains: []string{"zcash"},
		delay:  500 * time.Millisecond,
		routes: []Route{stubRoute(t, "slow", intent.LevelHigh)},
	}))

	start := time.Now()
	result := reg.Discover(context.Background(), shieldedSendIntent(t))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 400*time.Millisecond, "the join is bounded by the per-router timeout")
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "fast", result.Routes[0].RouterID)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, ErrRouterTimeout)
}

func TestDiscoverAbandonsDeadlineIgnoringRouters(t *testing.T) {
	reg := NewRegistry(50*time.Millisecond, nil)
	require.NoError(t, reg.Register(&stubRouter{
		id: "rogue", chains: []string{"zcash"},
		delay:     2 * time.Second,
		ignoreCtx: true,
	}))

	start := time.Now()
	result := reg.Discover(context.Background(), shieldedSendIntent(t))
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second, "a router that ignores its deadline cannot block discovery")
	assert.Empty(t, result.Routes)
	require.Len(t, result.Failures, 1)
	assert.ErrorIs(t, result.Failures[0].Err, ErrRouterTimeout)
}

func TestDiscoverNoSupportedRouters(t *testing.T) {
	reg := NewRegistry(time.Second, nil)
	require.NoError(t, reg.Register(&stubRouter{id: "eth-only", chains: []string{"ethereum"}}))

	result := reg.Discover(context.Background(), shieldedSendIntent(t))
	assert.Empty(t, result.Routes, "no applicable router means no routes, not an error")
	assert.Empty(t, result.Failures)
}

func TestDiscoverRespectsCallerCancellation(t *testing.T) {
	reg := NewRegistry(time.Second, nil)
	require.NoError(t, reg.Register(&stubRouter{
		id: "slow", chains: []string{"zcash"},
		delay: 5 * time.Second,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result := reg.Discover(ctx, shieldedSendIntent(t))
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, result.Routes)
	require.Len(t, result.Failures, 1)
	assert.True(t, errors.Is(result.Failures[0].Err, context.Canceled) ||
		errors.Is(result.Failures[0].Err, ErrRouterTimeout))
}
