package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxRequest holds the chain-call parameters of a single transaction.
type TxRequest struct {
	To    common.Address `json:"to"`
	Data  []byte         `json:"data,omitempty"`
	Value *big.Int       `json:"value,omitempty"`
	// GasLimit is the caller-declared default. Zero lets the signer estimate.
	GasLimit uint64 `json:"gasLimit,omitempty"`
}

// ValueOrZero returns the call value, never nil.
func (r TxRequest) ValueOrZero() *big.Int {
	if r.Value == nil {
		return new(big.Int)
	}
	return r.Value
}

// TransactionWrapper is one entry of a batch.
type TransactionWrapper struct {
	Title          string    `json:"title"`
	Transaction    TxRequest `json:"transaction"`
	ApplyGasBuffer bool      `json:"applyGasBuffer"`
}

// ResolvedTransactionWrapper is a wrapper after gas estimation.
type ResolvedTransactionWrapper struct {
	TransactionWrapper
	// GasLimit is nil when the estimator did not assign a limit.
	GasLimit *uint64 `json:"resolvedGasLimit,omitempty"`
}

// EffectiveGasLimit returns the resolved gas limit if present, otherwise
// the wrapper's own default.
func (w ResolvedTransactionWrapper) EffectiveGasLimit() uint64 {
	if w.GasLimit != nil {
		return *w.GasLimit
	}
	return w.Transaction.GasLimit
}

// Request returns the transaction request with the effective gas limit applied.
func (w ResolvedTransactionWrapper) Request() TxRequest {
	req := w.Transaction
	req.GasLimit = w.EffectiveGasLimit()
	return req
}

// Network identifies the chain an attempt runs against.
type Network struct {
	ChainID uint64 `json:"chainId"`
	Name    string `json:"name"`
}

// SafeCall is a single call inside a multisig submission.
type SafeCall struct {
	To    common.Address `json:"to"`
	Data  []byte         `json:"data"`
	Value *big.Int       `json:"value"`
}

// SafeSubmitParams carries the submission parameters for the multisig backend.
type SafeSubmitParams struct {
	GasLimit uint64 `json:"gasLimit"`
}

// SafeSubmission is the multisig backend's response, passed through to the
// AfterSafe hook untouched.
type SafeSubmission struct {
	Safe       common.Address `json:"safe"`
	SafeTxHash common.Hash    `json:"safeTxHash"`
	Nonce      uint64         `json:"nonce"`
	ServiceURL string         `json:"serviceUrl,omitempty"`
}

// Result is the completion result delivered to the flow host.
type Result struct {
	Success bool
	Err     error
}
