package execution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chainroute/pkg/router"
)

// DryRunProvider accepts every step and simulates a successful execution
// without touching any chain. It backs the CLI's --execute flow when no
// real provider is configured, and doubles as a test provider.
type DryRunProvider struct {
	mu       sync.Mutex
	statuses map[string]Status
	now      func() time.Time
}

// NewDryRunProvider creates a dry-run provider
func NewDryRunProvider() *DryRunProvider {
	return &DryRunProvider{
		statuses: make(map[string]Status),
		now:      time.Now,
	}
}

func (p *DryRunProvider) Name() string { return "dry-run" }

func (p *DryRunProvider) CanExecute(step router.Step) bool { return true }

func (p *DryRunProvider) GetQuote(ctx context.Context, step router.Step) (Quote, error) {
	return Quote{
		Provider:                p.Name(),
		EstimatedCost:           step.EstimatedCost,
		EstimatedLatencySeconds: step.EstimatedLatencySeconds,
		ExpiresAt:               p.now().Add(time.Minute).UnixMilli(),
	}, nil
}

func (p *DryRunProvider) Execute(ctx context.Context, req StepRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	executionID := uuid.New().String()

	p.mu.Lock()
	p.statuses[executionID] = StatusCompleted
	p.mu.Unlock()

	return Result{
		ExecutionID:       executionID,
		Status:            StatusCompleted,
		TransactionHashes: []string{"dryrun-" + executionID[:8]},
	}, nil
}

func (p *DryRunProvider) GetStatus(ctx context.Context, executionID string) (Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	status, ok := p.statuses[executionID]
	if !ok {
		return "", ErrProviderUnavailable
	}
	return status, nil
}

func (p *DryRunProvider) Cancel(ctx context.Context, executionID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if status, ok := p.statuses[executionID]; ok && !status.Terminal() {
		p.statuses[executionID] = StatusCancelled
		return true, nil
	}
	return false, nil
}
