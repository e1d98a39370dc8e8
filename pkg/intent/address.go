package intent

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// AddressType classifies an address within its chain's address space
type AddressType string

const (
	AddressShielded    AddressType = "SHIELDED"
	AddressTransparent AddressType = "TRANSPARENT"
	AddressContract    AddressType = "CONTRACT"
	AddressAccount     AddressType = "ACCOUNT"
)

// Address is a chain-qualified destination
type Address struct {
	Value string      `json:"value"`
	Chain string      `json:"chain"`
	Type  AddressType `json:"type"`
	Label string      `json:"label,omitempty"`
}

// evmChains are chains whose addresses follow the Ethereum hex format
var evmChains = map[string]bool{
	"ethereum": true,
	"arbitrum": true,
	"base":     true,
	"polygon":  true,
	"bsc":      true,
}

// shieldedChains are chains with a shielded pool
var shieldedChains = map[string]bool{
	"zcash": true,
}

// nearAccountPattern matches NEAR account IDs (named or implicit)
var nearAccountPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]{0,62}[a-z0-9])?$`)

// SupportsShielded reports whether a chain has a shielded pool
func SupportsShielded(chain string) bool {
	return shieldedChains[chain]
}

// Validate checks the address value against its chain's format rules and
// verifies that the address type is compatible with the chain
func (a Address) Validate() error {
	if a.Value == "" {
		return fmt.Errorf("%w: address value is required", ErrInvalidIntent)
	}
	if a.Chain == "" {
		return fmt.Errorf("%w: address chain is required", ErrInvalidIntent)
	}
	if a.Type == AddressShielded && !SupportsShielded(a.Chain) {
		return fmt.Errorf("%w: chain %s has no shielded pool", ErrInvalidIntent, a.Chain)
	}
	if a.Type == AddressContract && !evmChains[a.Chain] {
		return fmt.Errorf("%w: chain %s does not support contract addresses", ErrInvalidIntent, a.Chain)
	}

	switch {
	case evmChains[a.Chain]:
		return validateEVMAddress(a.Value)
	case a.Chain == "solana":
		return validateSolanaAddress(a.Value)
	case a.Chain == "zcash":
		return validateZcashAddress(a.Value, a.Type)
	case a.Chain == "near":
		return validateNearAddress(a.Value)
	case a.Chain == "bitcoin":
		return validateBitcoinAddress(a.Value)
	default:
		// Unknown chains get only structural checks; routers for those
		// chains are expected to reject bad addresses at quote time.
		return nil
	}
}

func validateEVMAddress(value string) error {
	if !common.IsHexAddress(value) {
		return fmt.Errorf("%w: invalid EVM address %q", ErrInvalidIntent, value)
	}
	// Mixed-case addresses must carry a valid EIP-55 checksum.
	hexPart := strings.TrimPrefix(value, "0x")
	if hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart) {
		if common.HexToAddress(value).Hex() != value {
			return fmt.Errorf("%w: EVM address %q fails checksum", ErrInvalidIntent, value)
		}
	}
	return nil
}

func validateSolanaAddress(value string) error {
	if _, err := solana.PublicKeyFromBase58(value); err != nil {
		return fmt.Errorf("%w: invalid Solana address %q: %v", ErrInvalidIntent, value, err)
	}
	return nil
}

func validateZcashAddress(value string, addrType AddressType) error {
	switch {
	case strings.HasPrefix(value, "t1"), strings.HasPrefix(value, "t3"):
		if addrType == AddressShielded {
			return fmt.Errorf("%w: %q is a transparent address, not shielded", ErrInvalidIntent, value)
		}
		if err := checkBase58Checksum(value); err != nil {
			return fmt.Errorf("%w: invalid Zcash transparent address %q: %v", ErrInvalidIntent, value, err)
		}
		return nil
	case strings.HasPrefix(value, "zs1"):
		if len(value) != 78 {
			return fmt.Errorf("%w: invalid Zcash sapling address length %d", ErrInvalidIntent, len(value))
		}
		return nil
	case strings.HasPrefix(value, "u1"):
		if len(value) < 40 {
			return fmt.Errorf("%w: invalid Zcash unified address %q", ErrInvalidIntent, value)
		}
		return nil
	default:
		return fmt.Errorf("%w: unrecognized Zcash address prefix in %q", ErrInvalidIntent, value)
	}
}

func validateNearAddress(value string) error {
	if len(value) < 2 || len(value) > 64 || !nearAccountPattern.MatchString(value) {
		return fmt.Errorf("%w: invalid NEAR account %q", ErrInvalidIntent, value)
	}
	return nil
}

func validateBitcoinAddress(value string) error {
	if strings.HasPrefix(value, "bc1") {
		if len(value) < 14 || len(value) > 74 {
			return fmt.Errorf("%w: invalid bech32 address length %d", ErrInvalidIntent, len(value))
		}
		return nil
	}
	if err := checkBase58Checksum(value); err != nil {
		return fmt.Errorf("%w: invalid Bitcoin address %q: %v", ErrInvalidIntent, value, err)
	}
	return nil
}

// checkBase58Checksum verifies the double-SHA256 checksum trailing a
// base58check-encoded address
func checkBase58Checksum(value string) error {
	raw, err := base58.Decode(value)
	if err != nil {
		return err
	}
	if len(raw) < 5 {
		return fmt.Errorf("decoded payload too short")
	}
	payload, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	for i := 0; i < 4; i++ {
		if second[i] != checksum[i] {
			return fmt.Errorf("checksum mismatch")
		}
	}
	return nil
}
