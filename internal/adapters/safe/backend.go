package safe

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
	"github.com/trebuchet-org/txflow/pkg/safe"
)

const proposalOrigin = "txflow"

var nonceRetryDelay = time.Second

// Backend proposes transactions to a Safe through the Safe Transaction Service
type Backend struct {
	client   *safe.SafeClient
	safe     common.Address
	chainID  uint64
	key      *ecdsa.PrivateKey
	proposer common.Address
	log      *slog.Logger
}

// NewBackend creates a Safe backend that signs proposals with proposerKey
func NewBackend(client *safe.SafeClient, safeAddress common.Address, chainID uint64, proposerKey string, log *slog.Logger) (*Backend, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(proposerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid proposer key: %w", err)
	}
	proposer := crypto.PubkeyToAddress(key.PublicKey)
	return &Backend{
		client:   client,
		safe:     safeAddress,
		chainID:  chainID,
		key:      key,
		proposer: proposer,
		log:      log.With("component", "safe", "safe", safeAddress.Hex()),
	}, nil
}

// Submit signs and proposes a single call to the Safe's queue
func (b *Backend) Submit(ctx context.Context, calls []domain.SafeCall, params domain.SafeSubmitParams) (domain.SafeSubmission, error) {
	if len(calls) != 1 {
		return domain.SafeSubmission{}, fmt.Errorf("safe backend proposes exactly one call, got %d", len(calls))
	}
	call := calls[0]

	nonce, err := retry.DoWithData(
		func() (uint64, error) { return b.client.NextNonce(ctx, b.safe) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(nonceRetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTemporary),
	)
	if err != nil {
		return domain.SafeSubmission{}, fmt.Errorf("failed to resolve safe nonce: %w", err)
	}

	tx := &safe.SafeTx{
		To:        call.To,
		Value:     call.Value,
		Data:      call.Data,
		Operation: safe.OperationCall,
		SafeTxGas: params.GasLimit,
		Nonce:     nonce,
	}
	safeTxHash, err := tx.Hash(b.chainID, b.safe)
	if err != nil {
		return domain.SafeSubmission{}, err
	}
	signature, err := safe.Sign(b.key, safeTxHash)
	if err != nil {
		return domain.SafeSubmission{}, err
	}

	proposal := safe.NewProposal(tx, safeTxHash, b.proposer, signature, proposalOrigin)
	if err := b.client.ProposeTransaction(ctx, b.safe, proposal); err != nil {
		return domain.SafeSubmission{}, err
	}
	b.log.Info("proposed safe transaction", "safeTxHash", safeTxHash.Hex(), "nonce", nonce)

	return domain.SafeSubmission{
		Safe:       b.safe,
		SafeTxHash: safeTxHash,
		Nonce:      nonce,
		ServiceURL: b.client.TransactionURL(safeTxHash),
	}, nil
}

// isTemporary retries transport failures and 5xx/429 answers
func isTemporary(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *safe.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

var _ usecase.SafeBackend = (*Backend)(nil)
