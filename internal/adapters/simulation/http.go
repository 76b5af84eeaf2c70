package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-resty/resty/v2"
	"github.com/trebuchet-org/txflow/internal/config"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// simulationEntry is the wire form of one simulation request
type simulationEntry struct {
	NetworkID   string   `json:"network_id"`
	Save        bool     `json:"save"`
	SaveIfFails bool     `json:"save_if_fails"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Input       string   `json:"input"`
	Value       *big.Int `json:"value"`
	EstimateGas bool     `json:"estimate_gas"`
}

type simulationResponse struct {
	EstimatedGas any `json:"estimatedGas"`
}

// HTTPService estimates gas through a hosted simulation service
type HTTPService struct {
	url    string
	client *resty.Client
	log    *slog.Logger
}

// NewHTTPService creates a simulation client for the configured service URL
func NewHTTPService(cfg *config.RuntimeConfig, log *slog.Logger) *HTTPService {
	sim := cfg.Project.Simulation
	client := resty.New().
		SetTimeout(60*time.Second).
		SetHeader("Accept", "application/json")
	if sim.AccessKey != "" {
		client.SetHeader("X-Access-Key", sim.AccessKey)
	}
	return &HTTPService{
		url:    sim.URL,
		client: client,
		log:    log.With("component", "simulation-http"),
	}
}

// Simulate posts all requests in one call and returns results aligned with them
func (s *HTTPService) Simulate(ctx context.Context, reqs []usecase.SimulationRequest) ([]usecase.SimulationResult, error) {
	entries := make([]simulationEntry, len(reqs))
	for i, req := range reqs {
		value := req.Value
		if value == nil {
			value = new(big.Int)
		}
		entries[i] = simulationEntry{
			NetworkID:   strconv.FormatUint(req.NetworkID, 10),
			Save:        req.Save,
			SaveIfFails: req.SaveIfFails,
			From:        req.From.Hex(),
			To:          req.To.Hex(),
			Input:       hexutil.Encode(req.Input),
			Value:       value,
			EstimateGas: req.EstimateGas,
		}
	}

	s.log.Debug("simulating transactions", "count", len(reqs), "url", s.url)
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(entries).
		Post(s.url)
	if err != nil {
		return nil, fmt.Errorf("simulation request failed: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("simulation service returned %d: %s", resp.StatusCode(), resp.String())
	}

	// Gas figures may arrive as numbers or strings
	decoder := json.NewDecoder(bytes.NewReader(resp.Body()))
	decoder.UseNumber()
	var decoded []simulationResponse
	if err := decoder.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode simulation response: %w", err)
	}

	results := make([]usecase.SimulationResult, len(decoded))
	for i, r := range decoded {
		results[i] = usecase.SimulationResult{EstimatedGas: r.EstimatedGas}
	}
	return results, nil
}

var _ usecase.Simulator = (*HTTPService)(nil)
