package batch

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// Context is the per-attempt state the batch hooks share
type Context struct {
	Sender  common.Address
	Network domain.Network
}

// Payload turns a batch file into a transaction flow payload
func Payload(file *File, report *ReportWriter) usecase.PayloadFunc[Context] {
	return usecase.StaticPayload(&usecase.TransactPayload[Context]{
		Headline:    file.Headline,
		Description: file.Description,
		Icon:        file.Icon,
		Messages: usecase.Messages{
			Success: file.Messages.Success,
			Failure: file.Messages.Failure,
		},
		Before: func(ctx context.Context, ec usecase.ExecutionContext) (Context, error) {
			return Context{Sender: ec.Address, Network: ec.Network}, nil
		},
		Transactions: func(ctx context.Context, c Context) ([]domain.TransactionWrapper, error) {
			return file.Wrappers(c.Sender)
		},
		After: func(ctx context.Context, receipts []*types.Receipt, c Context) error {
			return report.WriteReceipts(file, c, receipts)
		},
		AfterSafe: func(ctx context.Context, submission domain.SafeSubmission, c Context) error {
			return report.WriteSafe(file, c, submission)
		},
	})
}
