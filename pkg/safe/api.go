package safe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Uint accepts both JSON numbers and decimal strings; service versions
// disagree on which one they send for nonces and thresholds.
type Uint uint64

func (u *Uint) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", s, err)
		}
		*u = Uint(v)
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = Uint(n)
	return nil
}

// SafeInfo is the service's view of a Safe account
type SafeInfo struct {
	Address   string   `json:"address"`
	Nonce     Uint     `json:"nonce"`
	Threshold Uint     `json:"threshold"`
	Owners    []string `json:"owners"`
	Version   string   `json:"version"`
}

// MultisigTransaction represents a Safe multisig transaction
type MultisigTransaction struct {
	Safe                  string         `json:"safe"`
	To                    string         `json:"to"`
	Value                 string         `json:"value"`
	Data                  *string        `json:"data"`
	Operation             int            `json:"operation"`
	Nonce                 Uint           `json:"nonce"`
	SubmissionDate        time.Time      `json:"submissionDate"`
	TransactionHash       *string        `json:"transactionHash"`
	SafeTxHash            string         `json:"safeTxHash"`
	IsExecuted            bool           `json:"isExecuted"`
	IsSuccessful          *bool          `json:"isSuccessful"`
	ConfirmationsRequired int            `json:"confirmationsRequired"`
	Confirmations         []Confirmation `json:"confirmations"`
}

// Confirmation represents a confirmation on a Safe transaction
type Confirmation struct {
	Owner          string    `json:"owner"`
	SubmissionDate time.Time `json:"submissionDate"`
	Signature      string    `json:"signature"`
	SignatureType  string    `json:"signatureType"`
}

// Proposal is the body of a multisig transaction proposal
type Proposal struct {
	To                      string  `json:"to"`
	Value                   string  `json:"value"`
	Data                    *string `json:"data"`
	Operation               uint8   `json:"operation"`
	SafeTxGas               string  `json:"safeTxGas"`
	BaseGas                 string  `json:"baseGas"`
	GasPrice                string  `json:"gasPrice"`
	GasToken                string  `json:"gasToken"`
	RefundReceiver          string  `json:"refundReceiver"`
	Nonce                   string  `json:"nonce"`
	ContractTransactionHash string  `json:"contractTransactionHash"`
	Sender                  string  `json:"sender"`
	Signature               string  `json:"signature"`
	Origin                  string  `json:"origin,omitempty"`
}

// GetSafeInfo retrieves the current state of a Safe
func (c *SafeClient) GetSafeInfo(ctx context.Context, safeAddress common.Address) (*SafeInfo, error) {
	url := fmt.Sprintf("%s/api/v1/safes/%s/", c.serviceURL, safeAddress.Hex())
	var info SafeInfo
	if err := c.getJSON(ctx, url, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetTransaction retrieves a Safe transaction by its hash
func (c *SafeClient) GetTransaction(ctx context.Context, safeTxHash common.Hash) (*MultisigTransaction, error) {
	var tx MultisigTransaction
	if err := c.getJSON(ctx, c.TransactionURL(safeTxHash), &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// IsTransactionExecuted checks if a Safe transaction has been executed
func (c *SafeClient) IsTransactionExecuted(ctx context.Context, safeTxHash common.Hash) (bool, *common.Hash, error) {
	tx, err := c.GetTransaction(ctx, safeTxHash)
	if err != nil {
		return false, nil, err
	}

	if tx.IsExecuted && tx.TransactionHash != nil {
		ethTxHash := common.HexToHash(*tx.TransactionHash)
		return true, &ethTxHash, nil
	}

	return false, nil, nil
}

// GetPendingTransactions retrieves pending transactions for a Safe
func (c *SafeClient) GetPendingTransactions(ctx context.Context, safeAddress common.Address) ([]*MultisigTransaction, error) {
	url := fmt.Sprintf("%s/api/v1/safes/%s/multisig-transactions/?executed=false&ordering=-nonce",
		c.serviceURL, safeAddress.Hex())

	var result struct {
		Results []*MultisigTransaction `json:"results"`
	}
	if err := c.getJSON(ctx, url, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// NextNonce returns the nonce a new proposal should use: the on-chain nonce,
// or one past the highest queued transaction when that is larger.
func (c *SafeClient) NextNonce(ctx context.Context, safeAddress common.Address) (uint64, error) {
	info, err := c.GetSafeInfo(ctx, safeAddress)
	if err != nil {
		return 0, fmt.Errorf("failed to get safe info: %w", err)
	}

	pending, err := c.GetPendingTransactions(ctx, safeAddress)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending transactions: %w", err)
	}

	next := uint64(info.Nonce)
	for _, tx := range pending {
		if uint64(tx.Nonce) >= next {
			next = uint64(tx.Nonce) + 1
		}
	}
	return next, nil
}

// ProposeTransaction submits a signed proposal to the Safe's queue
func (c *SafeClient) ProposeTransaction(ctx context.Context, safeAddress common.Address, proposal *Proposal) error {
	url := fmt.Sprintf("%s/api/v1/safes/%s/multisig-transactions/", c.serviceURL, safeAddress.Hex())
	if err := c.postJSON(ctx, url, proposal); err != nil {
		return fmt.Errorf("failed to propose transaction: %w", err)
	}
	return nil
}

// TransactionURL returns the service link for a proposed transaction
func (c *SafeClient) TransactionURL(safeTxHash common.Hash) string {
	return fmt.Sprintf("%s/api/v1/multisig-transactions/%s/", c.serviceURL, safeTxHash.Hex())
}
