package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// Signer submits transactions from an externally owned account
type Signer interface {
	// SendTransaction signs and broadcasts req. A declined signature is
	// reported with an error whose message contains "user rejected transaction".
	SendTransaction(ctx context.Context, req domain.TxRequest) (TxHandle, error)
}

// TxHandle tracks a broadcast transaction until it is mined
type TxHandle interface {
	Hash() common.Hash
	Wait(ctx context.Context) (*types.Receipt, error)
}

// SafeBackend hands a batch of calls over to the multisig service
type SafeBackend interface {
	Submit(ctx context.Context, calls []domain.SafeCall, params domain.SafeSubmitParams) (domain.SafeSubmission, error)
}

// SimulationRequest is one entry of a gas simulation call
type SimulationRequest struct {
	NetworkID   uint64
	Save        bool
	SaveIfFails bool
	From        common.Address
	To          common.Address
	Input       []byte
	Value       *big.Int
	EstimateGas bool
}

// SimulationResult is one entry of the simulation response, aligned with the request.
// EstimatedGas is kept loosely typed as decoded and validated by the GasEstimator.
type SimulationResult struct {
	EstimatedGas any
}

// Simulator estimates gas for a list of candidate transactions in one call
type Simulator interface {
	Simulate(ctx context.Context, reqs []SimulationRequest) ([]SimulationResult, error)
}

// ExecutionContext is the read-only wallet and network snapshot for one attempt
type ExecutionContext struct {
	Signer      Signer      // nil in a Safe session
	Safe        SafeBackend // nil unless SafeSession
	Address     common.Address
	Network     domain.Network
	SafeSession bool
}

// WalletProvider snapshots the current wallet and network
type WalletProvider interface {
	Snapshot(ctx context.Context) (ExecutionContext, error)
}

// TimelineObserver receives every published timeline snapshot.
// Observers are invoked while the timeline lock is held and must not call back into it.
type TimelineObserver interface {
	OnTimeline(state State)
}

// TimelineObserverFunc adapts a function to TimelineObserver
type TimelineObserverFunc func(State)

func (f TimelineObserverFunc) OnTimeline(state State) { f(state) }

// FlowHost is the surface hosting a transaction flow
type FlowHost interface {
	// SetCloseable toggles whether the host may be dismissed
	SetCloseable(closeable bool)
	// Complete delivers the flow's completion result
	Complete(result domain.Result)
	// StartOver asks the host to restart the surrounding flow
	StartOver()
}

// NopFlowHost is a no-op implementation of FlowHost
type NopFlowHost struct{}

func (NopFlowHost) SetCloseable(bool)      {}
func (NopFlowHost) Complete(domain.Result) {}
func (NopFlowHost) StartOver()             {}

// ExplorerLinker formats block explorer links
type ExplorerLinker interface {
	TxURL(network string, hash common.Hash) string
}

// NetworkResolver handles network configuration resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkName string) (*domain.NetworkConfig, error)
}

// SenderRegistry lists and validates configured senders
type SenderRegistry interface {
	GetSenders(ctx context.Context) []string
	ResolveSender(ctx context.Context, name string) (*domain.SenderConfig, error)
	SenderAddress(ctx context.Context, name string) (common.Address, error)
}
