package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chainroute/pkg/intent"
	"chainroute/pkg/router"
)

// StepOutcome reports one step's execution result
type StepOutcome struct {
	Sequence          int      `json:"sequence"`
	Provider          string   `json:"provider"`
	ExecutionID       string   `json:"execution_id,omitempty"`
	Status            Status   `json:"status"`
	TransactionHashes []string `json:"transaction_hashes,omitempty"`
	Reason            string   `json:"reason,omitempty"`
}

// RouteOutcome reports which steps of a route completed and which failed.
// Multi-step routes are not atomic: when step N fails after steps 1..N-1
// succeeded, Completed holds the earlier steps and Failed the broken one,
// leaving rollback to the provider's best-effort cancel.
type RouteOutcome struct {
	IntentID  string        `json:"intent_id"`
	RouteID   string        `json:"route_id"`
	Completed []StepOutcome `json:"completed"`
	Failed    *StepOutcome  `json:"failed,omitempty"`
}

// Mapper drives a selected route step by step against the registered
// execution providers
type Mapper struct {
	providers   []Provider
	maxAttempts int
	backoff     time.Duration
	log         *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// MapperOption customizes a mapper
type MapperOption func(*Mapper)

// WithRetry sets the per-step attempt bound and base backoff for
// provider-unavailable retries
func WithRetry(maxAttempts int, backoff time.Duration) MapperOption {
	return func(m *Mapper) {
		m.maxAttempts = maxAttempts
		m.backoff = backoff
	}
}

// WithLogger sets the mapper's logger
func WithLogger(log *slog.Logger) MapperOption {
	return func(m *Mapper) { m.log = log }
}

// withSleep overrides the backoff sleeper, for tests
func withSleep(sleep func(ctx context.Context, d time.Duration) error) MapperOption {
	return func(m *Mapper) { m.sleep = sleep }
}

// NewMapper creates a mapper over the given providers
func NewMapper(providers []Provider, opts ...MapperOption) *Mapper {
	m := &Mapper{
		providers:   providers,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		log:         slog.Default(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ExecuteRoute drives every step of the route in order. Each provider call
// receives a StepRequest built from exactly one step. Custodial steps are
// refused unless the caller set ackCustodial. The first failed step stops
// the run; earlier completions are reported, and an in-flight execution is
// cancelled best-effort.
func (m *Mapper) ExecuteRoute(ctx context.Context, it *intent.Intent, rt router.Route, wallet WalletCore, ackCustodial bool) (*RouteOutcome, error) {
	if err := it.TransitionTo(intent.StatusExecuting); err != nil {
		return nil, err
	}

	outcome := &RouteOutcome{IntentID: it.ID, RouteID: rt.ID}

	for _, step := range rt.Steps {
		if step.TrustModel == router.TrustCustodial && !ackCustodial {
			failed := StepOutcome{
				Sequence: step.Sequence,
				Provider: step.Provider,
				Status:   StatusFailed,
				Reason:   ErrAcknowledgmentRequired.Error(),
			}
			outcome.Failed = &failed
			it.MarkFailed(intent.CodeExecutionFailed)
			return outcome, fmt.Errorf("step %d: %w", step.Sequence, ErrAcknowledgmentRequired)
		}

		provider, err := m.providerFor(step)
		if err != nil {
			failed := StepOutcome{Sequence: step.Sequence, Provider: step.Provider, Status: StatusFailed, Reason: err.Error()}
			outcome.Failed = &failed
			it.MarkFailed(intent.CodeProviderUnavailable)
			return outcome, err
		}

		req := StepRequest{
			IntentID:     it.ID,
			RouteID:      rt.ID,
			Step:         step,
			Recipient:    it.Destination.Value,
			Acknowledged: ackCustodial,
			Wallet:       wallet,
		}

		result, err := m.executeWithRetry(ctx, provider, req)
		if err != nil || result.Status == StatusFailed {
			reason := result.Reason
			if err != nil {
				reason = err.Error()
			}
			failed := StepOutcome{
				Sequence:          step.Sequence,
				Provider:          provider.Name(),
				ExecutionID:       result.ExecutionID,
				Status:            StatusFailed,
				TransactionHashes: result.TransactionHashes,
				Reason:            reason,
			}
			outcome.Failed = &failed

			if result.ExecutionID != "" {
				m.cancelBestEffort(ctx, provider, result.ExecutionID)
			}

			it.MarkFailed(executionCode(err))
			if err == nil {
				err = fmt.Errorf("step %d failed: %s", step.Sequence, reason)
			}
			return outcome, err
		}

		outcome.Completed = append(outcome.Completed, StepOutcome{
			Sequence:          step.Sequence,
			Provider:          provider.Name(),
			ExecutionID:       result.ExecutionID,
			Status:            result.Status,
			TransactionHashes: result.TransactionHashes,
		})
	}

	if err := it.TransitionTo(intent.StatusCompleted); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// providerFor selects the first registered provider that can execute the step
func (m *Mapper) providerFor(step router.Step) (Provider, error) {
	for _, p := range m.providers {
		if p.CanExecute(step) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s step via %s", ErrNoProvider, step.Type, step.Provider)
}

// executeWithRetry retries provider-unavailable failures with linear
// backoff, bounded by maxAttempts. Other errors surface immediately.
func (m *Mapper) executeWithRetry(ctx context.Context, provider Provider, req StepRequest) (Result, error) {
	var lastErr error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		result, err := provider.Execute(ctx, req)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, ErrProviderUnavailable) {
			return result, err
		}
		lastErr = err
		m.log.Warn("provider unavailable, backing off",
			"provider", provider.Name(),
			"step", req.Step.Sequence,
			"attempt", attempt)
		if attempt < m.maxAttempts {
			if serr := m.sleep(ctx, time.Duration(attempt)*m.backoff); serr != nil {
				return Result{}, serr
			}
		}
	}
	return Result{}, fmt.Errorf("after %d attempts: %w", m.maxAttempts, lastErr)
}

func (m *Mapper) cancelBestEffort(ctx context.Context, provider Provider, executionID string) {
	cancelled, err := provider.Cancel(ctx, executionID)
	if err != nil {
		m.log.Warn("best-effort cancel failed", "provider", provider.Name(), "execution", executionID, "error", err)
		return
	}
	if cancelled {
		m.log.Info("cancelled in-flight execution", "provider", provider.Name(), "execution", executionID)
	}
}

func executionCode(err error) string {
	if errors.Is(err, ErrProviderUnavailable) {
		return intent.CodeProviderUnavailable
	}
	return intent.CodeExecutionFailed
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
