// Package execution maps a selected route's steps onto execution provider
// calls, enforcing data minimization: a provider sees exactly one step's
// fields per call, never sibling steps, wallet balances or keys.
package execution

import (
	"context"
	"errors"

	"chainroute/pkg/router"
)

// Status is the execution state of a single step
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusRefunded   Status = "REFUNDED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal reports whether the status is final
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// Quote is a provider's priced offer for one step
type Quote struct {
	Provider                string `json:"provider"`
	EstimatedCost           string `json:"estimated_cost"` // smallest units
	EstimatedLatencySeconds int64  `json:"estimated_latency_seconds"`
	ExpiresAt               int64  `json:"expires_at"` // unix milliseconds
}

// Result is the outcome of submitting one step for execution
type Result struct {
	ExecutionID       string   `json:"execution_id"`
	Status            Status   `json:"status"`
	TransactionHashes []string `json:"transaction_hashes,omitempty"`
	Reason            string   `json:"reason,omitempty"` // human-readable failure detail
}

// StepRequest carries exactly one step's data to a provider, plus the
// signing boundary. It is constructed by the mapper and never contains
// sibling steps or wallet state.
type StepRequest struct {
	IntentID      string
	RouteID       string
	Step          router.Step
	Recipient     string // the intent's declared destination address
	RefundAddress string // where refunds go if the step fails; defaults to Recipient
	Acknowledged  bool   // the user acknowledged custody for custodial steps
	Wallet        WalletCore
}

// Provider carries out a single route step's on-chain action. External
// collaborator: the engine only talks to it through this boundary.
type Provider interface {
	Name() string
	CanExecute(step router.Step) bool
	GetQuote(ctx context.Context, step router.Step) (Quote, error)
	Execute(ctx context.Context, req StepRequest) (Result, error)
	GetStatus(ctx context.Context, executionID string) (Status, error)
	Cancel(ctx context.Context, executionID string) (bool, error)
}

var (
	// ErrProviderUnavailable marks an execution-time provider outage.
	// Triggers retry with bounded backoff before surfacing as a failure.
	ErrProviderUnavailable = errors.New("execution provider unavailable")

	// ErrAcknowledgmentRequired marks a custodial step submitted without
	// the explicit user acknowledgment flag.
	ErrAcknowledgmentRequired = errors.New("custodial step requires user acknowledgment")

	// ErrNoProvider marks a step no registered provider can execute.
	ErrNoProvider = errors.New("no provider can execute step")
)
