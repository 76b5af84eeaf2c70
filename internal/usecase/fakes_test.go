package usecase_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

var (
	senderAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	targetAddr = common.HexToAddress("0x2222222222222222222222222222222222222222")
	safeAddr   = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockSimulator is a mock implementation of Simulator
type MockSimulator struct {
	mock.Mock
}

func (m *MockSimulator) Simulate(ctx context.Context, reqs []usecase.SimulationRequest) ([]usecase.SimulationResult, error) {
	args := m.Called(ctx, reqs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]usecase.SimulationResult), args.Error(1)
}

// MockSafeBackend is a mock implementation of SafeBackend
type MockSafeBackend struct {
	mock.Mock
}

func (m *MockSafeBackend) Submit(ctx context.Context, calls []domain.SafeCall, params domain.SafeSubmitParams) (domain.SafeSubmission, error) {
	args := m.Called(ctx, calls, params)
	return args.Get(0).(domain.SafeSubmission), args.Error(1)
}

// scriptedSigner confirms every transaction unless an error is scripted for the call number
type scriptedSigner struct {
	mu       sync.Mutex
	requests []domain.TxRequest
	errs     map[int]error
	waitErrs map[int]error
	reverts  map[int]bool
	block    chan struct{}
	entered  chan struct{}
}

func newScriptedSigner() *scriptedSigner {
	return &scriptedSigner{
		errs:     map[int]error{},
		waitErrs: map[int]error{},
		reverts:  map[int]bool{},
	}
}

func (s *scriptedSigner) SendTransaction(ctx context.Context, req domain.TxRequest) (usecase.TxHandle, error) {
	s.mu.Lock()
	call := len(s.requests)
	s.requests = append(s.requests, req)
	err := s.errs[call]
	block, entered := s.block, s.entered
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &fakeHandle{signer: s, call: call, hash: common.BigToHash(big.NewInt(int64(call + 1)))}, nil
}

func (s *scriptedSigner) calls() []domain.TxRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TxRequest(nil), s.requests...)
}

type fakeHandle struct {
	signer *scriptedSigner
	call   int
	hash   common.Hash
}

func (h *fakeHandle) Hash() common.Hash { return h.hash }

func (h *fakeHandle) Wait(ctx context.Context) (*types.Receipt, error) {
	h.signer.mu.Lock()
	err := h.signer.waitErrs[h.call]
	revert := h.signer.reverts[h.call]
	h.signer.mu.Unlock()
	if err != nil {
		return nil, err
	}
	status := types.ReceiptStatusSuccessful
	if revert {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{Status: status, TxHash: h.hash, BlockNumber: big.NewInt(int64(h.call + 100))}, nil
}

type staticWallet struct {
	ec  usecase.ExecutionContext
	err error
}

func (w staticWallet) Snapshot(context.Context) (usecase.ExecutionContext, error) {
	return w.ec, w.err
}

type testLinker struct{}

func (testLinker) TxURL(network string, hash common.Hash) string {
	return fmt.Sprintf("https://%s.example/tx/%s", network, hash.Hex())
}

// recordingHost records every call made by a flow
type recordingHost struct {
	mu         sync.Mutex
	results    []domain.Result
	closeable  []bool
	startOvers int
}

func (h *recordingHost) SetCloseable(closeable bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeable = append(h.closeable, closeable)
}

func (h *recordingHost) Complete(result domain.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results = append(h.results, result)
}

func (h *recordingHost) StartOver() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.startOvers++
}

func (h *recordingHost) lastResult() (domain.Result, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.results) == 0 {
		return domain.Result{}, false
	}
	return h.results[len(h.results)-1], true
}

func eoaContext(signer usecase.Signer) usecase.ExecutionContext {
	return usecase.ExecutionContext{
		Signer:  signer,
		Address: senderAddr,
		Network: domain.Network{ChainID: 11155111, Name: "sepolia"},
	}
}

func safeContext(backend usecase.SafeBackend) usecase.ExecutionContext {
	return usecase.ExecutionContext{
		Safe:        backend,
		Address:     safeAddr,
		Network:     domain.Network{ChainID: 11155111, Name: "sepolia"},
		SafeSession: true,
	}
}

func newTestEngine(wallet usecase.WalletProvider, sim usecase.Simulator, cfg *config.RuntimeConfig) *usecase.Engine {
	if cfg == nil {
		cfg = &config.RuntimeConfig{}
	}
	log := discardLogger()
	estimator := usecase.NewGasEstimator(sim, cfg, log)
	return usecase.NewEngine(
		cfg,
		wallet,
		usecase.NewEOAExecutor(estimator, testLinker{}, log),
		usecase.NewSafeExecutor(estimator, log),
		log,
	)
}

func wrapper(title string, buffered bool) domain.TransactionWrapper {
	return domain.TransactionWrapper{
		Title: title,
		Transaction: domain.TxRequest{
			To:       targetAddr,
			Data:     []byte(title),
			GasLimit: 21000,
		},
		ApplyGasBuffer: buffered,
	}
}

// hookRecorder counts hook invocations and captures what After received
type hookRecorder struct {
	mu           sync.Mutex
	before       int
	transactions int
	after        [][]*types.Receipt
	afterSafe    []domain.SafeSubmission
	afterErr     error
}

func (r *hookRecorder) payload(wrappers ...domain.TransactionWrapper) usecase.PayloadFunc[string] {
	return usecase.StaticPayload(&usecase.TransactPayload[string]{
		Headline: "Test batch",
		Before: func(ctx context.Context, ec usecase.ExecutionContext) (string, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.before++
			return ec.Address.Hex(), nil
		},
		Transactions: func(ctx context.Context, c string) ([]domain.TransactionWrapper, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.transactions++
			return append([]domain.TransactionWrapper(nil), wrappers...), nil
		},
		After: func(ctx context.Context, receipts []*types.Receipt, c string) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.after = append(r.after, receipts)
			return r.afterErr
		},
		AfterSafe: func(ctx context.Context, submission domain.SafeSubmission, c string) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.afterSafe = append(r.afterSafe, submission)
			return r.afterErr
		},
	})
}

func statuses(state usecase.State) []domain.TimelineStatus {
	out := make([]domain.TimelineStatus, len(state.Items))
	for i, it := range state.Items {
		out[i] = it.Status
	}
	return out
}
