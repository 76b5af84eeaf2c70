package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

func TestBufferedGas(t *testing.T) {
	tests := []struct {
		estimated float64
		want      uint64
	}{
		{100, 125},
		{101, 127},
		{1, 2},
		{4, 5},
		{21000, 26250},
		{21001, 26252},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, usecase.BufferedGas(tt.estimated), "estimated=%v", tt.estimated)
	}
}

func TestGasEstimatorResolve(t *testing.T) {
	ctx := context.Background()
	wrappers := []domain.TransactionWrapper{wrapper("a", true), wrapper("b", false), wrapper("c", true)}

	t.Run("buffers candidates and keeps defaults", func(t *testing.T) {
		sim := new(MockSimulator)
		sim.On("Simulate", ctx, mock.MatchedBy(func(reqs []usecase.SimulationRequest) bool {
			return len(reqs) == 2 &&
				reqs[0].NetworkID == 10 && reqs[0].From == senderAddr && reqs[0].To == targetAddr &&
				string(reqs[0].Input) == "a" && string(reqs[1].Input) == "c" &&
				reqs[0].Save && reqs[0].SaveIfFails && reqs[0].EstimateGas && reqs[0].Value.Sign() == 0
		})).Return([]usecase.SimulationResult{{EstimatedGas: float64(100)}, {EstimatedGas: json.Number("101")}}, nil).Once()

		est := usecase.NewGasEstimator(sim, &config.RuntimeConfig{}, discardLogger())
		resolved, err := est.Resolve(ctx, wrappers, []int{0, 2}, 10, senderAddr)
		require.NoError(t, err)
		require.Len(t, resolved, 3)

		require.NotNil(t, resolved[0].GasLimit)
		assert.Equal(t, uint64(125), *resolved[0].GasLimit)
		assert.Nil(t, resolved[1].GasLimit)
		assert.Equal(t, uint64(21000), resolved[1].EffectiveGasLimit())
		require.NotNil(t, resolved[2].GasLimit)
		assert.Equal(t, uint64(127), resolved[2].EffectiveGasLimit())
		sim.AssertExpectations(t)
	})

	t.Run("no candidates makes no call", func(t *testing.T) {
		sim := new(MockSimulator)
		est := usecase.NewGasEstimator(sim, &config.RuntimeConfig{}, discardLogger())
		resolved, err := est.Resolve(ctx, wrappers, nil, 10, senderAddr)
		require.NoError(t, err)
		assert.Len(t, resolved, 3)
		sim.AssertNotCalled(t, "Simulate", mock.Anything, mock.Anything)
	})

	t.Run("test mode skips simulation and buffering", func(t *testing.T) {
		sim := new(MockSimulator)
		est := usecase.NewGasEstimator(sim, &config.RuntimeConfig{TestMode: true}, discardLogger())
		resolved, err := est.Resolve(ctx, wrappers, []int{0, 2}, 10, senderAddr)
		require.NoError(t, err)
		for _, r := range resolved {
			assert.Nil(t, r.GasLimit)
		}
		sim.AssertNotCalled(t, "Simulate", mock.Anything, mock.Anything)
	})

	failures := []struct {
		name    string
		results []usecase.SimulationResult
		err     error
	}{
		{name: "transport error", err: errors.New("connection refused")},
		{name: "missing estimate", results: []usecase.SimulationResult{{EstimatedGas: float64(100)}, {}}},
		{name: "zero estimate", results: []usecase.SimulationResult{{EstimatedGas: float64(100)}, {EstimatedGas: float64(0)}}},
		{name: "negative estimate", results: []usecase.SimulationResult{{EstimatedGas: float64(-5)}, {EstimatedGas: float64(100)}}},
		{name: "non-numeric estimate", results: []usecase.SimulationResult{{EstimatedGas: "lots"}, {EstimatedGas: float64(100)}}},
		{name: "nan estimate", results: []usecase.SimulationResult{{EstimatedGas: math.NaN()}, {EstimatedGas: float64(100)}}},
		{name: "misaligned response", results: []usecase.SimulationResult{{EstimatedGas: float64(100)}}},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			sim := new(MockSimulator)
			if tt.err != nil {
				sim.On("Simulate", ctx, mock.Anything).Return(nil, tt.err)
			} else {
				sim.On("Simulate", ctx, mock.Anything).Return(tt.results, nil)
			}

			est := usecase.NewGasEstimator(sim, &config.RuntimeConfig{}, discardLogger())
			resolved, err := est.Resolve(ctx, wrappers, []int{0, 2}, 10, senderAddr)
			assert.ErrorIs(t, err, usecase.ErrSimulation)
			assert.Nil(t, resolved, "no partial assignment")
		})
	}
}
