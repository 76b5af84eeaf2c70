package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// EOAExecutor submits a batch sequentially from an externally owned account.
// Transaction i+1 is only sent once transaction i is confirmed.
type EOAExecutor struct {
	estimator *GasEstimator
	linker    ExplorerLinker
	log       *slog.Logger
}

// NewEOAExecutor creates a new EOAExecutor
func NewEOAExecutor(estimator *GasEstimator, linker ExplorerLinker, log *slog.Logger) *EOAExecutor {
	return &EOAExecutor{
		estimator: estimator,
		linker:    linker,
		log:       log.With("component", "eoa-executor"),
	}
}

// Prepare validates the batch and resolves gas limits for the flagged
// wrappers at or after startIndex. No simulation call is made when none are flagged.
func (e *EOAExecutor) Prepare(
	ctx context.Context,
	ec ExecutionContext,
	wrappers []domain.TransactionWrapper,
	startIndex int,
) ([]domain.ResolvedTransactionWrapper, error) {
	if ec.Signer == nil {
		return nil, invariantf("direct signing requires a signer")
	}
	if startIndex < 0 || startIndex >= len(wrappers) {
		return nil, invariantf("start index %d out of range [0,%d)", startIndex, len(wrappers))
	}

	candidates := lo.Filter(lo.Range(len(wrappers)), func(i int, _ int) bool {
		return i >= startIndex && wrappers[i].ApplyGasBuffer
	})
	return e.estimator.Resolve(ctx, wrappers, candidates, ec.Network.ChainID, ec.Address)
}

// Execute runs the batch from startIndex. It returns the receipts of the
// transactions confirmed during this call, keyed by batch index. On the first
// failing transaction the item is marked, the error is stored on the timeline
// and the loop stops.
func (e *EOAExecutor) Execute(
	ctx context.Context,
	tl *Timeline,
	ec ExecutionContext,
	resolved []domain.ResolvedTransactionWrapper,
	startIndex int,
) (map[int]*types.Receipt, error) {
	receipts := make(map[int]*types.Receipt)

	for i := startIndex; i < len(resolved); i++ {
		w := resolved[i]
		id, ok := tl.ItemID(i)
		if !ok {
			return receipts, invariantf("no timeline item for transaction %d", i)
		}
		if tl.State().Items[i].Status.IsTerminalSuccess() {
			continue
		}

		if err := tl.Update(id, ItemPatch{Status: domain.StatusAwaitingSignature, Message: msgAwaitingEOA}); err != nil {
			return receipts, err
		}

		e.log.Debug("sending transaction", "index", i, "title", w.Title, "to", w.Transaction.To.Hex(), "gas_limit", w.EffectiveGasLimit())
		handle, err := ec.Signer.SendTransaction(ctx, w.Request())
		if err != nil {
			return receipts, e.fail(ctx, tl, i, err)
		}

		if err := tl.Update(id, ItemPatch{
			Status:      domain.StatusPending,
			Message:     msgPending,
			ExplorerURL: e.linker.TxURL(ec.Network.Name, handle.Hash()),
		}); err != nil {
			return receipts, err
		}

		receipt, err := handle.Wait(ctx)
		if err != nil {
			return receipts, e.fail(ctx, tl, i, err)
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return receipts, e.fail(ctx, tl, i, fmt.Errorf("transaction %s reverted in block %s", receipt.TxHash.Hex(), receipt.BlockNumber))
		}

		if err := tl.Update(id, ItemPatch{
			Status:      domain.StatusConfirmed,
			Message:     msgConfirmed,
			ExplorerURL: e.linker.TxURL(ec.Network.Name, receipt.TxHash),
		}); err != nil {
			return receipts, err
		}
		receipts[i] = receipt
		e.log.Info("transaction confirmed", "index", i, "title", w.Title, "hash", receipt.TxHash.Hex(), "block", receipt.BlockNumber)
	}

	return receipts, nil
}

func (e *EOAExecutor) fail(ctx context.Context, tl *Timeline, index int, cause error) error {
	status, err := classifySubmission(ctx, cause)
	e.log.Warn("transaction did not complete", "index", index, "status", status, "error", cause)
	if ferr := tl.Fail(index, status, err); ferr != nil {
		return errors.Join(err, ferr)
	}
	return err
}
