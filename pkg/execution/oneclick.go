package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"

	"chainroute/pkg/intent"
	"chainroute/pkg/router"
)

// OneClickProvider executes cross-chain steps through the NEAR Intents
// 1Click API: it requests a quote with a deposit address, has the wallet
// core sign the deposit transfer, and submits the deposit hash.
type OneClickProvider struct {
	client *oneclick.APIClient
	ctx    context.Context
}

// NewOneClickProvider creates a 1Click-backed execution provider. An empty
// baseURL keeps the SDK's default server.
func NewOneClickProvider(jwtToken, baseURL string) *OneClickProvider {
	config := oneclick.NewConfiguration()
	if baseURL != "" && len(config.Servers) > 0 {
		config.Servers[0].URL = baseURL
	}

	// Create authenticated context
	ctx := context.WithValue(context.Background(), oneclick.ContextAccessToken, jwtToken)

	return &OneClickProvider{
		client: oneclick.NewAPIClient(config),
		ctx:    ctx,
	}
}

func (p *OneClickProvider) Name() string { return "oneclick" }

// CanExecute accepts bridge steps and cross-chain swap steps
func (p *OneClickProvider) CanExecute(step router.Step) bool {
	switch step.Type {
	case router.StepBridge:
		return true
	case router.StepSwap:
		return step.InputAsset.Chain != step.OutputAsset.Chain
	default:
		return false
	}
}

// GetQuote fetches a dry quote for the step. 1Click does not itemize fees,
// so the step's quoted cost is carried through unchanged.
func (p *OneClickProvider) GetQuote(ctx context.Context, step router.Step) (Quote, error) {
	deadline := time.Now().Add(24 * time.Hour)
	quoteReq := p.buildQuoteRequest(step, "", "", true, deadline)

	_, httpResp, err := p.client.OneClickAPI.GetQuote(p.ctx).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		return Quote{}, p.wrapAPIError(httpResp, err, "failed to get quote")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Quote{}, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return Quote{
		Provider:                p.Name(),
		EstimatedCost:           step.EstimatedCost,
		EstimatedLatencySeconds: step.EstimatedLatencySeconds,
		ExpiresAt:               deadline.UnixMilli(),
	}, nil
}

// depositTransfer is the transaction the wallet core signs: a transfer of
// the step's input to the 1Click deposit address
type depositTransfer struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
	Token  string `json:"token"`
}

// Execute requests a live quote, asks the wallet core to sign the deposit
// transfer, and submits the deposit hash. The returned execution ID is the
// deposit address, which keys all later status lookups.
func (p *OneClickProvider) Execute(ctx context.Context, req StepRequest) (Result, error) {
	if req.Wallet == nil {
		return Result{}, fmt.Errorf("wallet core is required for 1Click execution")
	}

	refundTo := req.RefundAddress
	if refundTo == "" {
		refundTo = req.Recipient
	}

	deadline := time.Now().Add(24 * time.Hour)
	quoteReq := p.buildQuoteRequest(req.Step, req.Recipient, refundTo, false, deadline)

	resp, httpResp, err := p.client.OneClickAPI.GetQuote(p.ctx).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		return Result{}, p.wrapAPIError(httpResp, err, "failed to get quote")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: API returned status code %d", ErrProviderUnavailable, httpResp.StatusCode)
	}
	if resp == nil {
		return Result{}, fmt.Errorf("%w: empty quote response", ErrProviderUnavailable)
	}

	quoteDetails := resp.GetQuote()
	depositAddress := quoteDetails.GetDepositAddress()
	if depositAddress == "" {
		return Result{}, fmt.Errorf("%w: quote carried no deposit address", ErrProviderUnavailable)
	}

	payload, err := json.Marshal(depositTransfer{
		To:     depositAddress,
		Amount: req.Step.InputAmount,
		Token:  req.Step.InputAsset.Token,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode deposit transfer: %w", err)
	}

	signed, err := req.Wallet.SignTransaction(ctx, UnsignedTransaction{
		Chain:   req.Step.InputAsset.Chain,
		Payload: payload,
	})
	if err != nil {
		return Result{}, fmt.Errorf("deposit signing failed: %w", err)
	}

	if err := p.submitDepositTx(depositAddress, signed.Hash); err != nil {
		return Result{ExecutionID: depositAddress}, err
	}

	return Result{
		ExecutionID:       depositAddress,
		Status:            StatusPending,
		TransactionHashes: []string{signed.Hash},
	}, nil
}

// GetStatus checks the execution status keyed by deposit address
func (p *OneClickProvider) GetStatus(ctx context.Context, executionID string) (Status, error) {
	resp, httpResp, err := p.client.OneClickAPI.GetExecutionStatus(p.ctx).DepositAddress(executionID).Execute()
	if err != nil {
		return "", fmt.Errorf("%w: failed to get status: %v", ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return "", fmt.Errorf("%w: API returned status code %d", ErrProviderUnavailable, httpResp.StatusCode)
	}

	return mapSwapStatus(resp.GetStatus()), nil
}

// Cancel is not supported by the 1Click flow: once a deposit is submitted
// the swap either settles or refunds
func (p *OneClickProvider) Cancel(ctx context.Context, executionID string) (bool, error) {
	return false, nil
}

func (p *OneClickProvider) buildQuoteRequest(step router.Step, recipient, refundTo string, dry bool, deadline time.Time) *oneclick.QuoteRequest {
	return oneclick.NewQuoteRequest(
		dry,
		"EXACT_INPUT",                // swapType
		100,                          // slippageTolerance (1%)
		assetID(step.InputAsset),     // originAsset
		"ORIGIN_CHAIN",               // depositType
		assetID(step.OutputAsset),    // destinationAsset
		step.InputAmount,             // amount in smallest unit
		refundTo,                     // refundTo
		"ORIGIN_CHAIN",               // refundType
		recipient,                    // recipient
		"DESTINATION_CHAIN",          // recipientType
		deadline,                     // deadline
	)
}

func (p *OneClickProvider) submitDepositTx(depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := p.client.OneClickAPI.SubmitDepositTx(p.ctx).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("%w: failed to submit deposit: %v", ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 && httpResp.StatusCode != 201 {
		return fmt.Errorf("%w: API returned status code %d", ErrProviderUnavailable, httpResp.StatusCode)
	}

	return nil
}

// wrapAPIError extracts the actual error message from the response body
func (p *OneClickProvider) wrapAPIError(httpResp *http.Response, err error, msg string) error {
	if httpResp == nil {
		return fmt.Errorf("%w: %s: %v", ErrProviderUnavailable, msg, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	if readErr == nil && len(bodyBytes) > 0 {
		var errorResp map[string]interface{}
		if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
			if message, ok := errorResp["message"].(string); ok {
				return fmt.Errorf("%w: API error (status %d): %s", ErrProviderUnavailable, httpResp.StatusCode, message)
			}
			if errors, ok := errorResp["errors"]; ok {
				return fmt.Errorf("%w: API error (status %d): %v", ErrProviderUnavailable, httpResp.StatusCode, errors)
			}
		}
		return fmt.Errorf("%w: API error (status %d): %s", ErrProviderUnavailable, httpResp.StatusCode, string(bodyBytes))
	}
	return fmt.Errorf("%w: %s (status %d): %v", ErrProviderUnavailable, msg, httpResp.StatusCode, err)
}

// assetID resolves the provider-facing asset identifier
func assetID(a intent.Asset) string {
	if a.ContractAddress != "" {
		return a.ContractAddress
	}
	return a.Token
}

// mapSwapStatus folds the 1Click status vocabulary onto the engine's
func mapSwapStatus(status string) Status {
	switch status {
	case "SUCCESS", "COMPLETED":
		return StatusCompleted
	case "FAILED":
		return StatusFailed
	case "REFUNDED":
		return StatusRefunded
	case "PROCESSING", "DEPOSIT_RECEIVED", "KNOWN_DEPOSIT_TX":
		return StatusProcessing
	default:
		return StatusPending
	}
}
