// Package intent defines the immutable value objects a routing request is
// made of: the Intent itself, the assets and addresses it references, and
// the user preferences that steer route selection.
package intent

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type classifies what kind of asset movement an intent declares
type Type string

const (
	TypeSend    Type = "SEND"
	TypeSwap    Type = "SWAP"
	TypeReceive Type = "RECEIVE"
	TypeBridge  Type = "BRIDGE"
)

// Valid reports whether the type is a known intent type
func (t Type) Valid() bool {
	switch t {
	case TypeSend, TypeSwap, TypeReceive, TypeBridge:
		return true
	}
	return false
}

// Status is the lifecycle state of an intent
type Status string

const (
	StatusCreated       Status = "CREATED"
	StatusNormalizing   Status = "NORMALIZING"
	StatusValidating    Status = "VALIDATING"
	StatusRouting       Status = "ROUTING"
	StatusRouteSelected Status = "ROUTE_SELECTED"
	StatusExecuting     Status = "EXECUTING"
	StatusCompleted     Status = "COMPLETED"
	StatusFailed        Status = "FAILED"
	StatusCancelled     Status = "CANCELLED"
)

// Terminal reports whether the status is a terminal state
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// transitions maps each status to the statuses reachable from it.
// ROUTING may re-enter itself on quote refresh; CANCELLED is reachable
// from any non-terminal state and is handled separately.
var transitions = map[Status][]Status{
	StatusCreated:       {StatusNormalizing},
	StatusNormalizing:   {StatusValidating},
	StatusValidating:    {StatusRouting, StatusFailed},
	StatusRouting:       {StatusRouting, StatusRouteSelected, StatusFailed},
	StatusRouteSelected: {StatusExecuting, StatusRouting, StatusFailed},
	StatusExecuting:     {StatusCompleted, StatusFailed},
}

// Level is a categorical HIGH/MEDIUM/LOW measure, used for both the privacy
// and trust dimensions of a route
type Level string

const (
	LevelHigh   Level = "HIGH"
	LevelMedium Level = "MEDIUM"
	LevelLow    Level = "LOW"
)

// Valid reports whether the level is a known level
func (l Level) Valid() bool {
	return l == LevelHigh || l == LevelMedium || l == LevelLow
}

// Asset identifies a token on a specific chain
type Asset struct {
	Chain           string `json:"chain"`
	Token           string `json:"token"`
	ContractAddress string `json:"contract_address,omitempty"`
	Decimals        *int32 `json:"decimals,omitempty"`
}

// NewAsset builds an asset with known decimals
func NewAsset(chain, token string, decimals int32) Asset {
	return Asset{Chain: chain, Token: token, Decimals: &decimals}
}

// Validate checks the asset's structural invariants
func (a Asset) Validate() error {
	if a.Chain == "" {
		return fmt.Errorf("%w: asset chain is required", ErrInvalidIntent)
	}
	if a.Token == "" {
		return fmt.Errorf("%w: asset token is required", ErrInvalidIntent)
	}
	if a.Decimals != nil && (*a.Decimals < 0 || *a.Decimals > 18) {
		return fmt.Errorf("%w: asset decimals must be in [0,18], got %d", ErrInvalidIntent, *a.Decimals)
	}
	return nil
}

// Intent is a structured, chain-agnostic statement of a desired asset
// movement. It is immutable once created except for status transitions.
type Intent struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	SourceAsset Asset             `json:"source_asset"`
	TargetAsset Asset             `json:"target_asset"`
	Destination Address           `json:"destination"`
	Amount      Amount            `json:"amount"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   int64             `json:"timestamp"`            // unix milliseconds
	ExpiresAt   int64             `json:"expires_at,omitempty"` // unix milliseconds
	Status      Status            `json:"status"`
	FailureCode string            `json:"failure_code,omitempty"`
}

// New creates an intent in the CREATED state with a fresh ID
func New(t Type, source, target Asset, destination Address, amount Amount) *Intent {
	return &Intent{
		ID:          uuid.New().String(),
		Type:        t,
		SourceAsset: source,
		TargetAsset: target,
		Destination: destination,
		Amount:      amount,
		Timestamp:   time.Now().UnixMilli(),
		Status:      StatusCreated,
	}
}

// TransitionTo moves the intent to the next lifecycle state, enforcing the
// one-directional state machine
func (i *Intent) TransitionTo(next Status) error {
	if i.Status.Terminal() {
		return fmt.Errorf("intent %s is in terminal state %s", i.ID, i.Status)
	}
	if next == StatusCancelled {
		i.Status = StatusCancelled
		return nil
	}
	for _, allowed := range transitions[i.Status] {
		if next == allowed {
			i.Status = next
			return nil
		}
	}
	return fmt.Errorf("invalid transition %s -> %s for intent %s", i.Status, next, i.ID)
}

// MarkFailed moves the intent to FAILED carrying an error taxonomy code
func (i *Intent) MarkFailed(code string) {
	if i.Status.Terminal() {
		return
	}
	i.Status = StatusFailed
	i.FailureCode = code
}

// Expired reports whether the intent's deadline has passed
func (i *Intent) Expired(now time.Time) bool {
	return i.ExpiresAt != 0 && i.ExpiresAt < now.UnixMilli()
}

// CrossChain reports whether the intent moves value between chains
func (i *Intent) CrossChain() bool {
	return i.SourceAsset.Chain != i.TargetAsset.Chain
}

// Validate performs structural and semantic validation of the intent.
// Validation failures wrap ErrInvalidIntent; operations the engine
// understands but does not support wrap ErrUnsupportedIntent.
func (i *Intent) Validate(prefs Preferences) error {
	if i.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidIntent)
	}
	if !i.Type.Valid() {
		return fmt.Errorf("%w: unknown intent type %q", ErrInvalidIntent, i.Type)
	}
	if err := i.SourceAsset.Validate(); err != nil {
		return fmt.Errorf("source asset: %w", err)
	}
	if err := i.TargetAsset.Validate(); err != nil {
		return fmt.Errorf("target asset: %w", err)
	}
	if err := i.Destination.Validate(); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if err := i.Amount.Validate(); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if !i.Amount.Positive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidIntent)
	}
	if i.Type == TypeSend && i.Destination.Chain != i.TargetAsset.Chain {
		return fmt.Errorf("%w: send destination chain %s does not match target asset chain %s",
			ErrInvalidIntent, i.Destination.Chain, i.TargetAsset.Chain)
	}
	if i.CrossChain() && !prefs.AllowCrossChain {
		return fmt.Errorf("%w: cross-chain intent %s -> %s requires cross-chain to be enabled",
			ErrUnsupportedIntent, i.SourceAsset.Chain, i.TargetAsset.Chain)
	}
	return nil
}

// Weights are the per-criterion scoring weights; by convention they sum
// to 1.0, but this is not enforced
type Weights struct {
	Privacy float64 `json:"privacy"`
	Cost    float64 `json:"cost"`
	Latency float64 `json:"latency"`
	Trust   float64 `json:"trust"`
}

// DefaultWeights returns the default scoring weights
func DefaultWeights() Weights {
	return Weights{Privacy: 0.4, Cost: 0.2, Latency: 0.2, Trust: 0.2}
}

// Preferences steer route selection for a single routing request
type Preferences struct {
	PrivacyLevel       Level    `json:"privacy_level,omitempty"` // minimum acceptable route privacy
	MaxCost            string   `json:"max_cost,omitempty"`      // decimal string, smallest units
	MaxLatencySeconds  int64    `json:"max_latency_seconds,omitempty"`
	PreferredProviders []string `json:"preferred_providers,omitempty"`
	BlockedProviders   []string `json:"blocked_providers,omitempty"`
	Weights            *Weights `json:"weights,omitempty"`
	AllowCrossChain    bool     `json:"allow_cross_chain,omitempty"`
}

// EffectiveWeights returns the preference weights, falling back to defaults
func (p Preferences) EffectiveWeights() Weights {
	if p.Weights != nil {
		return *p.Weights
	}
	return DefaultWeights()
}

// Blocked reports whether a provider is on the block list
func (p Preferences) Blocked(provider string) bool {
	for _, b := range p.BlockedProviders {
		if b == provider {
			return true
		}
	}
	return false
}
