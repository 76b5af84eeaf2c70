package usecase

import (
	"context"
	"sort"

	"github.com/trebuchet-org/txflow/internal/domain"
)

// ListSendersParams contains parameters for listing senders
type ListSendersParams struct{}

// ListSendersResult contains the result of listing senders
type ListSendersResult struct {
	Senders []SenderStatus
}

// SenderStatus describes a configured sender
type SenderStatus struct {
	Name    string
	Type    domain.SenderType
	Address string
	Safe    string
	Error   error
}

// ListSenders is a use case for listing configured senders
type ListSenders struct {
	registry SenderRegistry
}

// NewListSenders creates a new ListSenders use case
func NewListSenders(registry SenderRegistry) *ListSenders {
	return &ListSenders{
		registry: registry,
	}
}

// Run executes the use case
func (uc *ListSenders) Run(ctx context.Context, params ListSendersParams) (*ListSendersResult, error) {
	names := uc.registry.GetSenders(ctx)
	sort.Strings(names)

	senders := make([]SenderStatus, 0, len(names))
	for _, name := range names {
		status := SenderStatus{Name: name}

		sender, err := uc.registry.ResolveSender(ctx, name)
		if err != nil {
			status.Error = err
			senders = append(senders, status)
			continue
		}
		status.Type = sender.Type
		status.Safe = sender.Safe

		addr, err := uc.registry.SenderAddress(ctx, name)
		if err != nil {
			status.Error = err
		} else {
			status.Address = addr.Hex()
		}

		senders = append(senders, status)
	}

	return &ListSendersResult{
		Senders: senders,
	}, nil
}
