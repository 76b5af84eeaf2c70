package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/trebuchet-org/txflow/internal/domain"
)

// SafeExecutor hands a single transaction over to a Safe multisig backend.
// One transaction per submission is the current hard contract.
type SafeExecutor struct {
	estimator *GasEstimator
	log       *slog.Logger
}

// NewSafeExecutor creates a new SafeExecutor
func NewSafeExecutor(estimator *GasEstimator, log *slog.Logger) *SafeExecutor {
	return &SafeExecutor{
		estimator: estimator,
		log:       log.With("component", "safe-executor"),
	}
}

// Prepare checks the batch holds exactly one wrapper before anything touches
// the network, then simulates it unconditionally.
func (e *SafeExecutor) Prepare(
	ctx context.Context,
	ec ExecutionContext,
	wrappers []domain.TransactionWrapper,
) ([]domain.ResolvedTransactionWrapper, error) {
	if len(wrappers) != 1 {
		return nil, invariantf("safe submission requires exactly one transaction, got %d", len(wrappers))
	}
	if ec.Safe == nil {
		return nil, invariantf("safe session without a safe backend")
	}
	return e.estimator.Resolve(ctx, wrappers, []int{0}, ec.Network.ChainID, ec.Address)
}

// Execute submits the transaction and marks it submittedToSafe
func (e *SafeExecutor) Execute(
	ctx context.Context,
	tl *Timeline,
	ec ExecutionContext,
	resolved []domain.ResolvedTransactionWrapper,
) (domain.SafeSubmission, error) {
	if len(resolved) != 1 {
		return domain.SafeSubmission{}, invariantf("safe submission requires exactly one transaction, got %d", len(resolved))
	}
	id, ok := tl.ItemID(0)
	if !ok {
		return domain.SafeSubmission{}, invariantf("no timeline item for the safe transaction")
	}
	if err := tl.Update(id, ItemPatch{Status: domain.StatusAwaitingSignature, Message: msgAwaitingSafe}); err != nil {
		return domain.SafeSubmission{}, err
	}

	w := resolved[0]
	calls := []domain.SafeCall{{
		To:    w.Transaction.To,
		Data:  w.Transaction.Data,
		Value: w.Transaction.ValueOrZero(),
	}}
	params := domain.SafeSubmitParams{GasLimit: w.EffectiveGasLimit()}

	e.log.Debug("submitting to safe", "safe", ec.Address.Hex(), "to", w.Transaction.To.Hex(), "gas_limit", params.GasLimit)
	submission, err := ec.Safe.Submit(ctx, calls, params)
	if err != nil {
		status, classified := classifySubmission(ctx, err)
		e.log.Warn("safe submission did not complete", "status", status, "error", err)
		if ferr := tl.Fail(0, status, classified); ferr != nil {
			return domain.SafeSubmission{}, errors.Join(classified, ferr)
		}
		return domain.SafeSubmission{}, classified
	}

	if err := tl.Update(id, ItemPatch{
		Status:      domain.StatusSubmittedToSafe,
		Message:     msgSubmittedToSafe,
		ExplorerURL: submission.ServiceURL,
	}); err != nil {
		return submission, err
	}
	e.log.Info("submitted to safe", "safe", submission.Safe.Hex(), "safe_tx_hash", submission.SafeTxHash.Hex(), "nonce", submission.Nonce)
	return submission, nil
}
