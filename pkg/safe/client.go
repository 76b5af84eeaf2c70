package safe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// TransactionServiceURLs contains the Safe Transaction Service URLs for different networks
var TransactionServiceURLs = map[uint64]string{
	1:        "https://safe-transaction-mainnet.safe.global",
	10:       "https://safe-transaction-optimism.safe.global",
	100:      "https://safe-transaction-gnosis-chain.safe.global",
	137:      "https://safe-transaction-polygon.safe.global",
	42161:    "https://safe-transaction-arbitrum.safe.global",
	11155111: "https://safe-transaction-sepolia.safe.global",
	8453:     "https://safe-transaction-base.safe.global",
	84532:    "https://safe-transaction-base-sepolia.safe.global",
	56:       "https://safe-transaction-bsc.safe.global",
	43114:    "https://safe-transaction-avalanche.safe.global",
	324:      "https://safe-transaction-zksync.safe.global",
	42220:    "https://safe-transaction-celo.safe.global",
	11142220: "https://safe-transaction-celo-sepolia.safe.global", // Celo Sepolia testnet
}

// SafeClient talks to a Safe Transaction Service instance
type SafeClient struct {
	serviceURL string
	client     *resty.Client
}

// NewSafeClient creates a client for the hosted service of a chain
func NewSafeClient(chainId uint64) (*SafeClient, error) {
	serviceURL, ok := TransactionServiceURLs[chainId]
	if !ok {
		return nil, fmt.Errorf("unsupported chain ID: %d", chainId)
	}
	return NewSafeClientWithURL(serviceURL), nil
}

// NewSafeClientWithURL creates a client for a self-hosted or custom service
func NewSafeClientWithURL(serviceURL string) *SafeClient {
	return &SafeClient{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// ServiceURL returns the base URL of the transaction service
func (c *SafeClient) ServiceURL() string {
	return c.serviceURL
}

// StatusError is returned when the service answers with an unexpected status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when repeated
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (c *SafeClient) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *SafeClient) postJSON(ctx context.Context, url string, in any) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(in).
		Post(url)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
