package intent

import (
	"fmt"
	"strings"
)

// TokenInfo describes a known token on a specific chain
type TokenInfo struct {
	Symbol          string
	Chain           string
	Decimals        int32
	ContractAddress string
}

// builtinTokens is the engine's static token directory. Routers may know
// about more tokens than this; the directory only serves intent
// normalization from symbol shorthand.
var builtinTokens = []TokenInfo{
	{Symbol: "ZEC", Chain: "zcash", Decimals: 8},
	{Symbol: "BTC", Chain: "bitcoin", Decimals: 8},
	{Symbol: "ETH", Chain: "ethereum", Decimals: 18},
	{Symbol: "SOL", Chain: "solana", Decimals: 9},
	// Native NEAR (24 decimals) exceeds the supported precision range and is
	// deliberately absent; NEAR-side value moves through bridged tokens.
	{Symbol: "USDC", Chain: "ethereum", Decimals: 6, ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
	{Symbol: "USDC", Chain: "solana", Decimals: 6, ContractAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
	{Symbol: "USDC", Chain: "near", Decimals: 6, ContractAddress: "a0b86991c6218b36c1d19d4a2e9eb0ce3606eb48.factory.bridge.near"},
	{Symbol: "USDT", Chain: "ethereum", Decimals: 6, ContractAddress: "0xdAC17F958D2ee523a2206206994597C13D831ec7"},
	{Symbol: "DAI", Chain: "ethereum", Decimals: 18, ContractAddress: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
}

// LookupToken finds a token by symbol, optionally constrained to a chain.
// With no chain the first directory match wins.
func LookupToken(symbol, chain string) (TokenInfo, error) {
	symbol = NormalizeTokenSymbol(symbol)
	chain = strings.ToLower(strings.TrimSpace(chain))

	for _, t := range builtinTokens {
		if t.Symbol != symbol {
			continue
		}
		if chain == "" || t.Chain == chain {
			return t, nil
		}
	}
	if chain != "" {
		return TokenInfo{}, fmt.Errorf("%w: token %q not known on chain %q", ErrInvalidIntent, symbol, chain)
	}
	return TokenInfo{}, fmt.Errorf("%w: token %q not known", ErrInvalidIntent, symbol)
}

// Asset converts the token info into an asset value
func (t TokenInfo) Asset() Asset {
	decimals := t.Decimals
	return Asset{
		Chain:           t.Chain,
		Token:           t.Symbol,
		ContractAddress: t.ContractAddress,
		Decimals:        &decimals,
	}
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"WBTC": "BTC",
		"WETH": "ETH",
		"WSOL": "SOL",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
