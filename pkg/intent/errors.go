package intent

import "errors"

var (
	// ErrInvalidIntent marks a malformed or unvalidatable intent. Fatal to
	// that intent.
	ErrInvalidIntent = errors.New("invalid intent")

	// ErrUnsupportedIntent marks an intent the engine understands but cannot
	// route in the current configuration, such as a cross-chain send without
	// cross-chain enabled. Reported, not fatal to the app.
	ErrUnsupportedIntent = errors.New("unsupported intent")
)

// Error taxonomy codes carried by failed intents
const (
	CodeInvalidIntent       = "INVALID_INTENT"
	CodeUnsupportedIntent   = "UNSUPPORTED_INTENT"
	CodeRoutingFailed       = "ROUTING_FAILED"
	CodeExecutionFailed     = "EXECUTION_FAILED"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
)
