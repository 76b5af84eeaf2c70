package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// Messages holds the flow's completion messages
type Messages struct {
	Success string
	Failure string
}

// TransactPayload is the caller-supplied configuration of a transaction flow.
// The hooks are invoked fresh on every attempt. Before and Transactions must
// yield a batch whose already confirmed prefix matches the first attempt.
type TransactPayload[C any] struct {
	Headline    string
	Description string
	Icon        string
	Messages    Messages

	// Before produces the context shared by the other hooks. Optional.
	Before func(ctx context.Context, ec ExecutionContext) (C, error)
	// Transactions builds the batch. Required.
	Transactions func(ctx context.Context, c C) ([]domain.TransactionWrapper, error)
	// After runs once every transaction is confirmed (direct signing only). Optional.
	After func(ctx context.Context, receipts []*types.Receipt, c C) error
	// AfterSafe runs once the transaction is handed to the Safe (Safe sessions only). Optional.
	AfterSafe func(ctx context.Context, submission domain.SafeSubmission, c C) error
}

// PayloadFunc resolves the payload at the start of every attempt
type PayloadFunc[C any] func(ctx context.Context) (*TransactPayload[C], error)

// StaticPayload returns a PayloadFunc that always yields p
func StaticPayload[C any](p *TransactPayload[C]) PayloadFunc[C] {
	return func(context.Context) (*TransactPayload[C], error) { return p, nil }
}

// Engine bundles the collaborators shared by every transaction flow
type Engine struct {
	wallet      WalletProvider
	eoa         *EOAExecutor
	safe        *SafeExecutor
	settleDelay time.Duration
	log         *slog.Logger
}

// NewEngine creates a new Engine
func NewEngine(
	cfg *config.RuntimeConfig,
	wallet WalletProvider,
	eoa *EOAExecutor,
	safe *SafeExecutor,
	log *slog.Logger,
) *Engine {
	return &Engine{
		wallet:      wallet,
		eoa:         eoa,
		safe:        safe,
		settleDelay: cfg.SettleDelay,
		log:         log.With("component", "transact"),
	}
}

// Transact sequences one batch of transactions to completion and resumes
// from the failed step on retry.
type Transact[C any] struct {
	engine   *Engine
	payload  PayloadFunc[C]
	host     FlowHost
	timeline *Timeline
	log      *slog.Logger

	running atomic.Bool

	mu       sync.Mutex
	receipts map[int]*types.Receipt
	hookErr  error
}

// NewTransact creates a flow over payload. host may be nil.
func NewTransact[C any](engine *Engine, payload PayloadFunc[C], host FlowHost, observers ...TimelineObserver) *Transact[C] {
	if host == nil {
		host = NopFlowHost{}
	}
	return &Transact[C]{
		engine:   engine,
		payload:  payload,
		host:     host,
		timeline: NewTimeline(observers...),
		log:      engine.log,
		receipts: make(map[int]*types.Receipt),
	}
}

// Timeline returns the flow's timeline tracker
func (t *Transact[C]) Timeline() *Timeline {
	return t.timeline
}

// State returns the current timeline snapshot
func (t *Transact[C]) State() State {
	return t.timeline.State()
}

// Execute runs one attempt starting at startIndex. It returns
// ErrRetryInProgress when another attempt is already running.
func (t *Transact[C]) Execute(ctx context.Context, startIndex int) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrRetryInProgress
	}
	defer t.running.Store(false)

	return t.execute(ctx, startIndex)
}

// Retry resumes the flow at ResumeIndex
func (t *Transact[C]) Retry(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrRetryInProgress
	}
	defer t.running.Store(false)

	state := t.timeline.State()
	if state.Completed {
		return ErrNothingToRetry
	}
	t.mu.Lock()
	hookErr := t.hookErr
	t.mu.Unlock()
	if hookErr != nil {
		return fmt.Errorf("%w: %w", ErrNothingToRetry, hookErr)
	}

	index, ok := resumeIndex(state)
	if !ok {
		return ErrNothingToRetry
	}

	t.timeline.SetRetrying(true)
	defer func() {
		if !t.timeline.State().Completed {
			t.timeline.SetRetrying(false)
		}
	}()

	t.log.Info("retrying transaction flow", "index", index)
	return t.execute(ctx, index)
}

// ResumeIndex returns the index a retry would start at
func (t *Transact[C]) ResumeIndex() int {
	index, _ := resumeIndex(t.timeline.State())
	return index
}

// StartOver asks the host to restart the surrounding flow
func (t *Transact[C]) StartOver() {
	t.host.StartOver()
}

// resumeIndex picks the failed index, else the first item that has not
// reached terminal success, else 0 for a flow that never initialized.
func resumeIndex(state State) (int, bool) {
	if state.FailedTxIndex >= 0 {
		return state.FailedTxIndex, true
	}
	if !state.Initialized {
		return 0, true
	}
	idx := slices.IndexFunc(state.Items, func(it domain.TimelineItem) bool {
		return !it.Status.IsTerminalSuccess()
	})
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

func (t *Transact[C]) execute(ctx context.Context, startIndex int) error {
	t.host.SetCloseable(false)
	defer t.host.SetCloseable(true)

	// 1. Reset a resumed attempt
	prior := t.timeline.State()
	if prior.Initialized {
		// Never start before an item that has not yet succeeded
		if idx, ok := resumeIndex(prior); ok && startIndex < idx {
			startIndex = idx
		}
	}
	if prior.Err != nil || prior.FailedTxIndex >= 0 || startIndex > 0 || hasFailedItem(prior.Items) {
		t.timeline.Reset(startIndex)
	}
	resumed := prior.Initialized
	if !resumed && startIndex > 0 {
		return t.abort(invariantf("cannot start at index %d before the timeline is initialized", startIndex))
	}

	// 2. Resolve the payload
	payload, err := t.payload(ctx)
	if err != nil {
		return t.abort(fmt.Errorf("resolving payload: %w", err))
	}
	if payload == nil || payload.Transactions == nil {
		return t.abort(invariantf("payload has no transactions hook"))
	}

	// 3. Snapshot wallet and network
	ec, err := t.engine.wallet.Snapshot(ctx)
	if err != nil {
		return t.abort(fmt.Errorf("reading wallet context: %w", err))
	}
	if ec.Address == (common.Address{}) {
		return t.abort(invariantf("no wallet address"))
	}

	// 4. Mode
	safeMode := ec.SafeSession
	log := t.log.With("network", ec.Network.Name, "address", ec.Address.Hex(), "safe", safeMode)

	// 5. Shared context
	var c C
	if payload.Before != nil {
		c, err = payload.Before(ctx, ec)
		if err != nil {
			return t.abort(fmt.Errorf("before hook: %w", err))
		}
	}

	// 6. Build the batch
	wrappers, err := t.buildTransactions(ctx, payload, c)
	if err != nil {
		return t.abort(fmt.Errorf("building transactions: %w", err))
	}
	if err := t.checkBatch(wrappers); err != nil {
		return t.abort(err)
	}

	// 7. Validate and estimate gas before any item asks for a signature
	var resolved []domain.ResolvedTransactionWrapper
	if safeMode {
		resolved, err = t.engine.safe.Prepare(ctx, ec, wrappers)
	} else {
		resolved, err = t.engine.eoa.Prepare(ctx, ec, wrappers, startIndex)
	}
	if err != nil {
		if resumed && errors.Is(err, ErrSimulation) {
			if ferr := t.timeline.Fail(startIndex, domain.StatusFailed, err); ferr != nil {
				return t.abort(errors.Join(err, ferr))
			}
			return fmt.Errorf("%w: %w", ErrAttemptIncomplete, err)
		}
		return t.abort(err)
	}

	// 8. Initialize once per attempt family
	t.timeline.Initialize(wrappers, safeMode)

	// 9. Dispatch
	var submission domain.SafeSubmission
	if safeMode {
		submission, err = t.engine.safe.Execute(ctx, t.timeline, ec, resolved)
	} else {
		var receipts map[int]*types.Receipt
		receipts, err = t.engine.eoa.Execute(ctx, t.timeline, ec, resolved, startIndex)
		t.mu.Lock()
		for i, r := range receipts {
			t.receipts[i] = r
		}
		t.mu.Unlock()
	}

	// 10. Stop on an incomplete attempt
	state := t.timeline.State()
	if hasIncompleteItem(state.Items) {
		log.Info("attempt incomplete", "failed_index", state.FailedTxIndex, "error", err)
		if err == nil {
			err = state.Err
		}
		return fmt.Errorf("%w: %w", ErrAttemptIncomplete, err)
	}
	if err != nil {
		return t.abort(err)
	}

	// 11. Finalize
	if safeMode {
		if payload.AfterSafe != nil {
			if err := payload.AfterSafe(ctx, submission, c); err != nil {
				return t.hookFailed(err)
			}
		}
	} else if err := t.finalizeEOA(ctx, payload, c); err != nil {
		return t.hookFailed(err)
	}

	// 12. Complete
	t.timeline.SetCompleted()
	log.Info("transaction flow completed", "transactions", len(wrappers))
	t.host.Complete(domain.Result{Success: true})
	return nil
}

// buildTransactions runs the Transactions hook alongside the settle timer and waits for both
func (t *Transact[C]) buildTransactions(ctx context.Context, payload *TransactPayload[C], c C) ([]domain.TransactionWrapper, error) {
	var wrappers []domain.TransactionWrapper
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w, err := payload.Transactions(gctx, c)
		wrappers = w
		return err
	})
	if delay := t.engine.settleDelay; delay > 0 {
		g.Go(func() error {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return wrappers, nil
}

// checkBatch verifies a re-derived batch still lines up with the initialized timeline
func (t *Transact[C]) checkBatch(wrappers []domain.TransactionWrapper) error {
	if len(wrappers) == 0 {
		return invariantf("transactions hook returned an empty batch")
	}
	if dups := lo.FindDuplicatesBy(wrappers, func(w domain.TransactionWrapper) string { return w.Title }); len(dups) > 0 {
		return invariantf("duplicate transaction title %q", dups[0].Title)
	}

	state := t.timeline.State()
	if !state.Initialized {
		return nil
	}
	if len(wrappers) != len(state.Items) {
		return invariantf("batch has %d transactions, timeline has %d", len(wrappers), len(state.Items))
	}
	for i, item := range state.Items {
		if item.Status.IsTerminalSuccess() && wrappers[i].Title != item.Title {
			return invariantf("confirmed transaction %d changed from %q to %q", i, item.Title, wrappers[i].Title)
		}
	}
	return nil
}

func (t *Transact[C]) finalizeEOA(ctx context.Context, payload *TransactPayload[C], c C) error {
	lastID, ok := t.timeline.ItemID(t.timeline.Len() - 1)
	if !ok {
		return invariantf("timeline is empty")
	}
	if err := t.timeline.Update(lastID, ItemPatch{Status: domain.StatusFinalizing, Message: msgFinalizing}); err != nil {
		return err
	}

	var hookErr error
	if payload.After != nil {
		hookErr = payload.After(ctx, t.familyReceipts(), c)
	}

	if err := t.timeline.Update(lastID, ItemPatch{Status: domain.StatusConfirmed, Message: msgConfirmed}); err != nil {
		return errors.Join(hookErr, err)
	}
	return hookErr
}

// familyReceipts returns every receipt of the attempt family in batch order
func (t *Transact[C]) familyReceipts() []*types.Receipt {
	t.mu.Lock()
	defer t.mu.Unlock()
	indices := lo.Keys(t.receipts)
	slices.Sort(indices)
	return lo.Map(indices, func(i int, _ int) *types.Receipt { return t.receipts[i] })
}

// abort records an attempt-level error that implicates no item
func (t *Transact[C]) abort(err error) error {
	t.log.Warn("attempt aborted", "error", err)
	t.timeline.FailAttempt(err)
	return err
}

// hookFailed reports a post-confirmation failure as a whole-flow failure.
// The timeline is left as is since the chain-level work succeeded.
func (t *Transact[C]) hookFailed(cause error) error {
	err := cause
	if !errors.Is(err, ErrPostConfirmationHook) {
		err = fmt.Errorf("%w: %w", ErrPostConfirmationHook, cause)
	}
	t.mu.Lock()
	t.hookErr = err
	t.mu.Unlock()

	t.log.Error("post-confirmation hook failed", "error", cause)
	t.host.Complete(domain.Result{Success: false, Err: err})
	return err
}

func hasFailedItem(items []domain.TimelineItem) bool {
	return lo.ContainsBy(items, func(it domain.TimelineItem) bool { return it.Status.IsFailure() })
}

func hasIncompleteItem(items []domain.TimelineItem) bool {
	return lo.ContainsBy(items, func(it domain.TimelineItem) bool {
		return it.Status.IsFailure() || it.Status == domain.StatusRetrying
	})
}
