package simulation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// GasBackend is the subset of an RPC client needed for estimation
type GasBackend interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// NodeSimulator estimates gas with eth_estimateGas on the network's node
type NodeSimulator struct {
	backend GasBackend
	log     *slog.Logger
}

// NewNodeSimulator creates a simulator backed by an RPC node
func NewNodeSimulator(backend GasBackend, log *slog.Logger) *NodeSimulator {
	return &NodeSimulator{backend: backend, log: log.With("component", "simulation-node")}
}

// Simulate estimates each request in order. Any failure fails the whole call.
func (s *NodeSimulator) Simulate(ctx context.Context, reqs []usecase.SimulationRequest) ([]usecase.SimulationResult, error) {
	results := make([]usecase.SimulationResult, 0, len(reqs))
	for i, req := range reqs {
		to := req.To
		gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  req.From,
			To:    &to,
			Data:  req.Input,
			Value: req.Value,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas for request %d: %w", i, err)
		}
		s.log.Debug("estimated gas", "index", i, "to", to.Hex(), "gas", gas)
		results = append(results, usecase.SimulationResult{EstimatedGas: gas})
	}
	return results, nil
}

var _ usecase.Simulator = (*NodeSimulator)(nil)
