package signer

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/txflow/internal/domain"
	"github.com/trebuchet-org/txflow/internal/usecase"
)

// ConfirmFunc asks the operator to approve a signature. A nil error approves.
type ConfirmFunc func(label string) error

// ConfirmingSigner asks for approval before every signature it delegates
type ConfirmingSigner struct {
	inner   usecase.Signer
	confirm ConfirmFunc
}

// NewConfirmingSigner wraps inner with an interactive confirmation prompt
func NewConfirmingSigner(inner usecase.Signer, confirm ConfirmFunc) *ConfirmingSigner {
	if confirm == nil {
		confirm = PromptConfirm
	}
	return &ConfirmingSigner{inner: inner, confirm: confirm}
}

// PromptConfirm shows a y/N prompt on the terminal
func PromptConfirm(label string) error {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err
}

func (s *ConfirmingSigner) SendTransaction(ctx context.Context, req domain.TxRequest) (usecase.TxHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label := fmt.Sprintf("Sign transaction to %s (value %s wei, %d bytes of data)",
		color.New(color.FgCyan).Sprint(req.To.Hex()), req.ValueOrZero().String(), len(req.Data))
	if err := s.confirm(label); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return nil, usecase.ErrUserRejected
		}
		return nil, fmt.Errorf("confirmation failed: %w", err)
	}

	return s.inner.SendTransaction(ctx, req)
}

var _ usecase.Signer = (*ConfirmingSigner)(nil)
