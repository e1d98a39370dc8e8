package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chainroute/pkg/intent"
)

// Registry holds the set of registered routers and fans route discovery out
// across them. The router list is read-mostly after startup registration.
type Registry struct {
	mu      sync.RWMutex
	routers []Router
	byID    map[string]Router

	timeout time.Duration // per-router discovery budget
	log     *slog.Logger
}

// NewRegistry creates a registry with a per-router discovery timeout
func NewRegistry(timeout time.Duration, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		byID:    make(map[string]Router),
		timeout: timeout,
		log:     log,
	}
}

// Register adds a router. Router IDs must be unique within the registry.
func (g *Registry) Register(r Router) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.byID[r.ID()]; exists {
		return fmt.Errorf("router %q already registered", r.ID())
	}
	g.byID[r.ID()] = r
	g.routers = append(g.routers, r)
	return nil
}

// Get returns a registered router by ID
func (g *Registry) Get(id string) (Router, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.byID[id]
	return r, ok
}

// Routers returns the registered routers in registration order
func (g *Registry) Routers() []Router {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Router, len(g.routers))
	copy(out, g.routers)
	return out
}

// FindSupportedRouters returns the routers whose supported chains intersect
// the intent's source and target chains
func (g *Registry) FindSupportedRouters(it *intent.Intent) []Router {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var supported []Router
	for _, r := range g.routers {
		if routerSupports(r, it) {
			supported = append(supported, r)
		}
	}
	return supported
}

func routerSupports(r Router, it *intent.Intent) bool {
	for _, chain := range r.SupportedChains() {
		if chain == it.SourceAsset.Chain || chain == it.TargetAsset.Chain {
			return true
		}
	}
	return false
}

// DiscoveryFailure records one router's soft failure during discovery
type DiscoveryFailure struct {
	RouterID string
	Err      error
}

// DiscoveryResult aggregates one discovery fan-out. An empty route set is a
// normal outcome, not an error: callers treat "no route" as routing having
// produced no options.
type DiscoveryResult struct {
	Routes   []Route
	Failures []DiscoveryFailure
}

// Discover invokes FindRoutes on every supported router concurrently, each
// bounded by the per-router timeout. A timed-out or failed router
// contributes zero routes; its failure is recorded, not propagated. The
// join is bounded: a router that ignores its deadline is abandoned once the
// deadline passes.
func (g *Registry) Discover(ctx context.Context, it *intent.Intent) DiscoveryResult {
	routers := g.FindSupportedRouters(it)
	if len(routers) == 0 {
		return DiscoveryResult{}
	}

	type outcome struct {
		routerID string
		routes   []Route
		err      error
	}

	results := make(chan outcome, len(routers))
	for _, r := range routers {
		go func(r Router) {
			cctx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()

			inner := make(chan outcome, 1)
			go func() {
				routes, err := r.FindRoutes(cctx, it)
				inner <- outcome{routerID: r.ID(), routes: routes, err: err}
			}()

			select {
			case res := <-inner:
				if errors.Is(res.err, context.DeadlineExceeded) {
					res.err = fmt.Errorf("%w: %s after %s", ErrRouterTimeout, r.ID(), g.timeout)
					res.routes = nil
				}
				results <- res
			case <-cctx.Done():
				err := cctx.Err()
				if errors.Is(err, context.DeadlineExceeded) {
					err = fmt.Errorf("%w: %s after %s", ErrRouterTimeout, r.ID(), g.timeout)
				}
				results <- outcome{routerID: r.ID(), err: err}
			}
		}(r)
	}

	var result DiscoveryResult
	for range routers {
		res := <-results
		if res.err != nil {
			g.log.Warn("router discovery failed",
				"router", res.routerID,
				"intent", it.ID,
				"error", res.err)
			result.Failures = append(result.Failures, DiscoveryFailure{RouterID: res.routerID, Err: res.err})
			continue
		}
		result.Routes = append(result.Routes, res.routes...)
	}

	return result
}
