package execution

import "context"

// UnsignedTransaction is a fully-constructed transaction awaiting a
// signature. Payload is chain-specific and opaque to the engine.
type UnsignedTransaction struct {
	Chain   string
	Payload []byte
}

// SignedTransaction is the wallet core's signing output
type SignedTransaction struct {
	Chain string
	Raw   []byte
	Hash  string
}

// WalletCore signs fully-constructed transactions. It is an external
// collaborator: the engine forwards it to providers untouched and never
// receives keys, seed material, balances or history through it.
type WalletCore interface {
	SignTransaction(ctx context.Context, tx UnsignedTransaction) (SignedTransaction, error)
}
