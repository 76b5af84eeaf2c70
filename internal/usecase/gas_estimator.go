package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// maxEstimate bounds estimates so the buffered float math stays exact
const maxEstimate = 1 << 52

// GasEstimator resolves gas limits through a Simulator and applies a 25% safety buffer
type GasEstimator struct {
	sim      Simulator
	testMode bool
	log      *slog.Logger
}

// NewGasEstimator creates a new GasEstimator
func NewGasEstimator(sim Simulator, cfg *config.RuntimeConfig, log *slog.Logger) *GasEstimator {
	return &GasEstimator{
		sim:      sim,
		testMode: cfg.TestMode,
		log:      log.With("component", "gas-estimator"),
	}
}

// BufferedGas returns ceil(estimated * 1.25)
func BufferedGas(estimated float64) uint64 {
	return uint64(math.Ceil(estimated * 5 / 4))
}

// Resolve simulates the wrappers at the candidate indices in a single call
// and assigns each of them its buffered limit. All other wrappers keep their
// declared default. Any failure aborts the whole resolution with ErrSimulation.
func (g *GasEstimator) Resolve(
	ctx context.Context,
	wrappers []domain.TransactionWrapper,
	candidates []int,
	chainID uint64,
	from common.Address,
) ([]domain.ResolvedTransactionWrapper, error) {
	resolved := lo.Map(wrappers, func(w domain.TransactionWrapper, _ int) domain.ResolvedTransactionWrapper {
		return domain.ResolvedTransactionWrapper{TransactionWrapper: w}
	})

	if g.testMode {
		g.log.Debug("test mode, skipping gas simulation", "candidates", len(candidates))
		return resolved, nil
	}
	if len(candidates) == 0 {
		return resolved, nil
	}
	for _, idx := range candidates {
		if idx < 0 || idx >= len(wrappers) {
			return nil, invariantf("simulation candidate %d out of range [0,%d)", idx, len(wrappers))
		}
	}
	if g.sim == nil {
		return nil, fmt.Errorf("%w: no simulator configured", ErrSimulation)
	}

	reqs := lo.Map(candidates, func(idx int, _ int) SimulationRequest {
		tx := wrappers[idx].Transaction
		return SimulationRequest{
			NetworkID:   chainID,
			Save:        true,
			SaveIfFails: true,
			From:        from,
			To:          tx.To,
			Input:       tx.Data,
			Value:       new(big.Int),
			EstimateGas: true,
		}
	})

	g.log.Debug("simulating transactions", "count", len(reqs), "chain_id", chainID, "from", from.Hex())
	results, err := g.sim.Simulate(ctx, reqs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSimulation, err)
	}
	if len(results) != len(reqs) {
		return nil, fmt.Errorf("%w: expected %d results, got %d", ErrSimulation, len(reqs), len(results))
	}

	limits := make([]uint64, len(results))
	for i, res := range results {
		estimate, err := parseEstimate(res.EstimatedGas)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %q: %w", ErrSimulation, wrappers[candidates[i]].Title, err)
		}
		limits[i] = BufferedGas(estimate)
	}

	for i, idx := range candidates {
		limit := limits[i]
		resolved[idx].GasLimit = &limit
		g.log.Debug("resolved gas limit", "title", wrappers[idx].Title, "gas_limit", limit)
	}
	return resolved, nil
}

func parseEstimate(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("missing estimatedGas")
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("non-numeric estimatedGas %q", n.String())
		}
		f = parsed
	default:
		return 0, fmt.Errorf("non-numeric estimatedGas %v (%T)", v, v)
	}

	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0, fmt.Errorf("non-numeric estimatedGas %v", f)
	case f <= 0:
		return 0, fmt.Errorf("estimatedGas must be positive, got %v", f)
	case f > maxEstimate:
		return 0, fmt.Errorf("estimatedGas %v out of range", f)
	}
	return f, nil
}
