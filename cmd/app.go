package cmd

import (
	"log/slog"

	"chainroute/config"
	"chainroute/pkg/execution"
	"chainroute/pkg/intent"
	"chainroute/pkg/logging"
	"chainroute/pkg/router"
	"chainroute/pkg/routing"
	"chainroute/pkg/scoring"
)

// engine bundles the wired routing components for one CLI invocation
type engine struct {
	cfg       *config.Config
	log       *slog.Logger
	registry  *router.Registry
	scorer    scoring.Scorer
	pipeline  *routing.Pipeline
	providers []execution.Provider
}

// defaultChainQuotes is the fee and latency table backing the built-in
// single-chain router. Fees are in each chain's canonical smallest units.
func defaultChainQuotes() map[string]router.ChainQuote {
	return map[string]router.ChainQuote{
		"zcash":    {Fee: "1000", LatencySeconds: 75, TrustModel: router.TrustTrustless, Shielded: true},
		"bitcoin":  {Fee: "2000", LatencySeconds: 1800, TrustModel: router.TrustTrustless},
		"ethereum": {Fee: "420000000000000", LatencySeconds: 15, TrustModel: router.TrustTrustless},
		"solana":   {Fee: "5000", LatencySeconds: 2, TrustModel: router.TrustTrustless},
		"near":     {Fee: "80000000000000000000", LatencySeconds: 2, TrustModel: router.TrustTrustless},
	}
}

// defaultBridgeLinks routes everything through the NEAR intents hub, plus a
// custodial direct path between Ethereum and Bitcoin for contrast
func defaultBridgeLinks() []router.BridgeLink {
	hub := []string{"ethereum", "solana", "zcash", "bitcoin"}

	var links []router.BridgeLink
	for _, chain := range hub {
		links = append(links,
			router.BridgeLink{
				Provider:       "intents-bridge",
				FromChain:      chain,
				ToChain:        "near",
				Fee:            "15000",
				LatencySeconds: 300,
				TrustModel:     router.TrustNonCustodial,
				Privacy:        intent.LevelMedium,
			},
			router.BridgeLink{
				Provider:       "intents-bridge",
				FromChain:      "near",
				ToChain:        chain,
				Fee:            "15000",
				LatencySeconds: 300,
				TrustModel:     router.TrustNonCustodial,
				Privacy:        intent.LevelMedium,
			},
		)
	}

	links = append(links, router.BridgeLink{
		Provider:       "fastlane-custodial",
		FromChain:      "ethereum",
		ToChain:        "bitcoin",
		Fee:            "8000",
		LatencySeconds: 120,
		TrustModel:     router.TrustCustodial,
		Privacy:        intent.LevelLow,
	})

	return links
}

// buildEngine wires the registry, scorer, pipeline and execution providers
// from configuration. The registry is constructed per invocation and passed
// by reference; there is no ambient global state.
func buildEngine(cfg *config.Config, strategy string) (*engine, error) {
	log := logging.New(cfg.Logging)

	registry := router.NewRegistry(cfg.Routing.RouterTimeout, log)

	single := router.NewSingleChainRouter("single-chain", defaultChainQuotes(), cfg.Routing.QuoteTTL)
	cross := router.NewCrossChainRouter("cross-chain", defaultBridgeLinks(), defaultChainQuotes(), cfg.Routing.QuoteTTL)
	private, err := router.NewPrivacyRouter(cross, intent.LevelMedium)
	if err != nil {
		return nil, err
	}

	for _, r := range []router.Router{single, cross, private} {
		if err := registry.Register(r); err != nil {
			return nil, err
		}
	}

	scorer := scoring.NewScorer(
		cfg.Scoring.MaxCostCeiling,
		cfg.Scoring.MaxLatencySeconds,
		intent.Weights{
			Privacy: cfg.Scoring.WeightPrivacy,
			Cost:    cfg.Scoring.WeightCost,
			Latency: cfg.Scoring.WeightLatency,
			Trust:   cfg.Scoring.WeightTrust,
		},
	)

	if strategy == "" {
		strategy = cfg.Scoring.Strategy
	}

	pipeline := routing.New(routing.Options{
		Registry:   registry,
		Scorer:     scorer,
		Strategy:   strategy,
		MaxRetries: cfg.Routing.MaxRetries,
		TopN:       cfg.Routing.TopN,
		Logger:     log,
	})

	providers := []execution.Provider{}
	if cfg.OneClick.JWTToken != "" {
		providers = append(providers, execution.NewOneClickProvider(cfg.OneClick.JWTToken, cfg.OneClick.BaseURL))
	}
	providers = append(providers, execution.NewDryRunProvider())

	return &engine{
		cfg:       cfg,
		log:       log,
		registry:  registry,
		scorer:    scorer,
		pipeline:  pipeline,
		providers: providers,
	}, nil
}
