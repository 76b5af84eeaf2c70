package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// Backend is the RPC surface needed to build, send and track a transaction
type Backend interface {
	bind.DeployBackend
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// KeyedSigner signs EIP-1559 transactions with a local private key
type KeyedSigner struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	signer  types.Signer
	log     *slog.Logger
}

// NewKeyedSigner creates a signer for hexKey on chainID
func NewKeyedSigner(backend Backend, hexKey string, chainID uint64, log *slog.Logger) (*KeyedSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	id := new(big.Int).SetUint64(chainID)
	from := crypto.PubkeyToAddress(key.PublicKey)
	return &KeyedSigner{
		backend: backend,
		key:     key,
		from:    from,
		chainID: id,
		signer:  types.LatestSignerForChainID(id),
		log:     log.With("component", "signer", "from", from.Hex()),
	}, nil
}

// Address returns the account the signer sends from
func (s *KeyedSigner) Address() common.Address {
	return s.from
}

// SendTransaction fills nonce, fees and gas, signs and broadcasts req
func (s *KeyedSigner) SendTransaction(ctx context.Context, req domain.TxRequest) (usecase.TxHandle, error) {
	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas tip: %w", err)
	}
	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(baseFee, big.NewInt(2)))

	to := req.To
	gas := req.GasLimit
	if gas == 0 {
		gas, err = s.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:      s.from,
			To:        &to,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Value:     req.ValueOrZero(),
			Data:      req.Data,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
	}

	tx, err := types.SignNewTx(s.key, s.signer, &types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     req.ValueOrZero(),
		Data:      req.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	s.log.Debug("transaction sent", "hash", tx.Hash().Hex(), "nonce", nonce, "gas", gas)

	return &pendingTx{backend: s.backend, tx: tx}, nil
}

type pendingTx struct {
	backend bind.DeployBackend
	tx      *types.Transaction
}

func (p *pendingTx) Hash() common.Hash {
	return p.tx.Hash()
}

func (p *pendingTx) Wait(ctx context.Context) (*types.Receipt, error) {
	return bind.WaitMined(ctx, p.backend, p.tx)
}

var _ usecase.Signer = (*KeyedSigner)(nil)
