package safe

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Operation is the Safe call type
type Operation uint8

const (
	OperationCall         Operation = 0
	OperationDelegateCall Operation = 1
)

// SafeTx is the EIP-712 message a Safe owner signs to approve a transaction
type SafeTx struct {
	To             common.Address
	Value          *big.Int
	Data           []byte
	Operation      Operation
	SafeTxGas      uint64
	BaseGas        uint64
	GasPrice       *big.Int
	GasToken       common.Address
	RefundReceiver common.Address
	Nonce          uint64
}

var safeTxTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"SafeTx": {
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
		{Name: "operation", Type: "uint8"},
		{Name: "safeTxGas", Type: "uint256"},
		{Name: "baseGas", Type: "uint256"},
		{Name: "gasPrice", Type: "uint256"},
		{Name: "gasToken", Type: "address"},
		{Name: "refundReceiver", Type: "address"},
		{Name: "nonce", Type: "uint256"},
	},
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// TypedData returns the EIP-712 payload for a Safe deployed at safeAddress
func (tx *SafeTx) TypedData(chainID uint64, safeAddress common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       safeTxTypes,
		PrimaryType: "SafeTx",
		Domain: apitypes.TypedDataDomain{
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: safeAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"to":             tx.To.Hex(),
			"value":          bigOrZero(tx.Value).String(),
			"data":           hexutil.Encode(tx.Data),
			"operation":      fmt.Sprintf("%d", tx.Operation),
			"safeTxGas":      fmt.Sprintf("%d", tx.SafeTxGas),
			"baseGas":        fmt.Sprintf("%d", tx.BaseGas),
			"gasPrice":       bigOrZero(tx.GasPrice).String(),
			"gasToken":       tx.GasToken.Hex(),
			"refundReceiver": tx.RefundReceiver.Hex(),
			"nonce":          fmt.Sprintf("%d", tx.Nonce),
		},
	}
}

// Hash computes the safeTxHash the Safe contract and service agree on
func (tx *SafeTx) Hash(chainID uint64, safeAddress common.Address) (common.Hash, error) {
	typedData := tx.TypedData(chainID, safeAddress)
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash SafeTx: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// Sign produces an owner signature over safeTxHash in the 65-byte r||s||v
// form with v in {27, 28}.
func Sign(key *ecdsa.PrivateKey, safeTxHash common.Hash) ([]byte, error) {
	sig, err := crypto.Sign(safeTxHash.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign safeTxHash: %w", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

// NewProposal builds the service request for a signed SafeTx
func NewProposal(tx *SafeTx, safeTxHash common.Hash, sender common.Address, signature []byte, origin string) *Proposal {
	var data *string
	if len(tx.Data) > 0 {
		encoded := hexutil.Encode(tx.Data)
		data = &encoded
	}
	return &Proposal{
		To:                      tx.To.Hex(),
		Value:                   bigOrZero(tx.Value).String(),
		Data:                    data,
		Operation:               uint8(tx.Operation),
		SafeTxGas:               fmt.Sprintf("%d", tx.SafeTxGas),
		BaseGas:                 fmt.Sprintf("%d", tx.BaseGas),
		GasPrice:                bigOrZero(tx.GasPrice).String(),
		GasToken:                tx.GasToken.Hex(),
		RefundReceiver:          tx.RefundReceiver.Hex(),
		Nonce:                   fmt.Sprintf("%d", tx.Nonce),
		ContractTransactionHash: safeTxHash.Hex(),
		Sender:                  sender.Hex(),
		Signature:               hexutil.Encode(signature),
		Origin:                  origin,
	}
}
