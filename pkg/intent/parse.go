package intent

import (
	"fmt"
	"regexp"
	"strings"
)

// Request is a parsed but not yet normalized routing command
type Request struct {
	Type        Type
	Amount      string // display units
	SourceToken string
	TargetToken string
	Destination string // only set for SEND commands
}

// Patterns for natural-language routing commands. The destination of a send
// keeps its original case: addresses are case-sensitive on most chains.
var (
	sendPattern = regexp.MustCompile(`(?i)^send\s+(\d+\.?\d*)\s+([A-Za-z0-9]+)\s+to\s+(\S+)$`)
	swapPattern = regexp.MustCompile(`(?i)^(?:swap\s+)?(\d+\.?\d*)\s+([A-Za-z0-9]+)\s+to\s+([A-Za-z0-9]+)$`)
)

// ParseCommand parses a natural language routing command
// Examples:
//   - "send 100 ZEC to zs1..."
//   - "swap 1 SOL to USDC"
//   - "1.5 ETH to BTC"
func ParseCommand(command string) (*Request, error) {
	command = strings.TrimSpace(command)

	if matches := sendPattern.FindStringSubmatch(command); matches != nil {
		return &Request{
			Type:        TypeSend,
			Amount:      matches[1],
			SourceToken: NormalizeTokenSymbol(matches[2]),
			Destination: matches[3],
		}, nil
	}

	if matches := swapPattern.FindStringSubmatch(command); matches != nil {
		return &Request{
			Type:        TypeSwap,
			Amount:      matches[1],
			SourceToken: NormalizeTokenSymbol(matches[2]),
			TargetToken: NormalizeTokenSymbol(matches[3]),
		}, nil
	}

	return nil, fmt.Errorf("%w: unrecognized command %q. Expected 'send <amount> <token> to <address>' or 'swap <amount> <token> to <token>'",
		ErrInvalidIntent, command)
}

// RequestOptions supply the context a bare command lacks: chains, and for
// swaps the recipient address
type RequestOptions struct {
	SourceChain string
	TargetChain string
	Destination string // recipient for swaps, or an override for sends
}

// Normalize turns a parsed request into a CREATED intent
func (r *Request) Normalize(opts RequestOptions) (*Intent, error) {
	sourceToken, err := LookupToken(r.SourceToken, opts.SourceChain)
	if err != nil {
		return nil, fmt.Errorf("source token: %w", err)
	}

	var targetToken TokenInfo
	switch r.Type {
	case TypeSend:
		targetChain := opts.TargetChain
		if targetChain == "" {
			targetChain = sourceToken.Chain
		}
		targetToken, err = LookupToken(r.SourceToken, targetChain)
		if err != nil {
			return nil, fmt.Errorf("target token: %w", err)
		}
	case TypeSwap:
		targetToken, err = LookupToken(r.TargetToken, opts.TargetChain)
		if err != nil {
			return nil, fmt.Errorf("target token: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: cannot normalize %s request", ErrInvalidIntent, r.Type)
	}

	destination := r.Destination
	if opts.Destination != "" {
		destination = opts.Destination
	}
	if destination == "" {
		return nil, fmt.Errorf("%w: recipient address is required", ErrInvalidIntent)
	}

	amount, err := NewAmount(r.Amount, sourceToken.Symbol, sourceToken.Decimals)
	if err != nil {
		return nil, err
	}

	addr := Address{
		Value: destination,
		Chain: targetToken.Chain,
		Type:  InferAddressType(destination, targetToken.Chain),
	}

	return New(r.Type, sourceToken.Asset(), targetToken.Asset(), addr, amount), nil
}

// InferAddressType guesses the address type from its chain and shape
func InferAddressType(value, chain string) AddressType {
	switch chain {
	case "zcash":
		if strings.HasPrefix(value, "zs1") || strings.HasPrefix(value, "u1") {
			return AddressShielded
		}
		return AddressTransparent
	case "bitcoin":
		return AddressTransparent
	case "near", "solana":
		return AddressAccount
	default:
		return AddressAccount
	}
}
