package config

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/samber/lo"
	"github.com/trebuchet-org/txflow/internal/domain"
)

// SenderResolver looks up and validates sender configurations
type SenderResolver struct {
	configs map[string]domain.SenderConfig
}

// NewSenderResolver creates a new sender resolver
func NewSenderResolver(cfg *RuntimeConfig) *SenderResolver {
	configs := map[string]domain.SenderConfig{}
	if cfg.Project != nil && cfg.Project.Senders != nil {
		configs = cfg.Project.Senders
	}
	return &SenderResolver{configs: configs}
}

// GetSenders returns the configured sender names in sorted order
func (s *SenderResolver) GetSenders(ctx context.Context) []string {
	names := lo.Keys(s.configs)
	sort.Strings(names)
	return names
}

// ResolveSender retrieves and validates a sender configuration by name.
// An empty name selects the default sender.
func (s *SenderResolver) ResolveSender(ctx context.Context, name string) (*domain.SenderConfig, error) {
	_, sender, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateSender(sender); err != nil {
		return nil, fmt.Errorf("sender '%s': %w", name, err)
	}
	return sender, nil
}

// ResolveProposer returns the private-key sender that proposes for a Safe sender
func (s *SenderResolver) ResolveProposer(ctx context.Context, safe *domain.SenderConfig) (*domain.SenderConfig, error) {
	if safe.Type != domain.SenderTypeSafe {
		return nil, fmt.Errorf("sender type %s has no proposer", safe.Type)
	}
	proposer, err := s.ResolveSender(ctx, safe.Proposer)
	if err != nil {
		return nil, fmt.Errorf("proposer: %w", err)
	}
	if proposer.Type != domain.SenderTypePrivateKey {
		return nil, fmt.Errorf("proposer '%s' must be a private_key sender, got %s", safe.Proposer, proposer.Type)
	}
	return proposer, nil
}

// SenderAddress returns the on-chain address a sender acts as
func (s *SenderResolver) SenderAddress(ctx context.Context, name string) (common.Address, error) {
	sender, err := s.ResolveSender(ctx, name)
	if err != nil {
		return common.Address{}, err
	}
	switch sender.Type {
	case domain.SenderTypeSafe:
		return common.HexToAddress(sender.Safe), nil
	case domain.SenderTypePrivateKey:
		key, err := crypto.HexToECDSA(strings.TrimPrefix(sender.PrivateKey, "0x"))
		if err != nil {
			return common.Address{}, fmt.Errorf("invalid private key: %w", err)
		}
		return crypto.PubkeyToAddress(key.PublicKey), nil
	default:
		return common.Address{}, fmt.Errorf("unknown sender type: %s", sender.Type)
	}
}

// lookup finds a sender by exact then case-insensitive name
func (s *SenderResolver) lookup(name string) (string, *domain.SenderConfig, error) {
	// Handle special cases
	if name == "" {
		return s.getDefaultSender()
	}

	// Direct lookup
	if sender, ok := s.configs[name]; ok {
		return name, &sender, nil
	}

	// Try case-insensitive lookup
	nameLower := strings.ToLower(name)
	for key, sender := range s.configs {
		if strings.ToLower(key) == nameLower {
			return key, &sender, nil
		}
	}

	return "", nil, fmt.Errorf("sender '%s' not found%s", name, suggest(name, s.GetSenders(context.Background())))
}

// getDefaultSender returns the default sender configuration
func (s *SenderResolver) getDefaultSender() (string, *domain.SenderConfig, error) {
	// Check for explicitly marked default
	if sender, ok := s.configs["default"]; ok {
		return "default", &sender, nil
	}

	// If only one sender exists, use it
	if len(s.configs) == 1 {
		for name, sender := range s.configs {
			return name, &sender, nil
		}
	}

	// Check for common default names
	for _, name := range []string{"local", "deployer", "dev"} {
		if sender, ok := s.configs[name]; ok {
			return name, &sender, nil
		}
	}

	return "", nil, fmt.Errorf("no default sender configured")
}

// ValidateSender validates a sender configuration
func (s *SenderResolver) ValidateSender(sender *domain.SenderConfig) error {
	if sender == nil {
		return fmt.Errorf("sender configuration is nil")
	}

	switch sender.Type {
	case domain.SenderTypePrivateKey:
		if sender.PrivateKey == "" {
			return fmt.Errorf("private key is required for private_key sender")
		}
		if !isValidPrivateKey(sender.PrivateKey) {
			return fmt.Errorf("invalid private key format")
		}

	case domain.SenderTypeSafe:
		if sender.Safe == "" {
			return fmt.Errorf("safe address is required for safe sender")
		}
		if !isValidAddress(sender.Safe) {
			return fmt.Errorf("invalid safe address format")
		}
		if sender.Proposer == "" {
			return fmt.Errorf("proposer is required for safe sender")
		}

	default:
		return fmt.Errorf("unknown sender type: %s", sender.Type)
	}

	return nil
}

// Helper functions for validation
func isValidPrivateKey(key string) bool {
	// Remove 0x prefix if present
	key = strings.TrimPrefix(key, "0x")

	// Check if it's 64 hex characters
	if len(key) != 64 {
		return false
	}

	return isHex(key)
}

func isValidAddress(addr string) bool {
	return common.IsHexAddress(addr)
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
