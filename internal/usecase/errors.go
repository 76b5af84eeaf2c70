package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/trebuchet-org/txflow/internal/domain"
)

// Error taxonomy of a transaction flow
var (
	// ErrUserRejected is returned when the user declined a signature prompt
	ErrUserRejected = errors.New("user rejected transaction")

	// ErrSimulation is returned when gas estimation aborts an attempt
	ErrSimulation = errors.New("gas simulation failed")

	// ErrSubmission is returned when sending or confirming a transaction fails
	ErrSubmission = errors.New("transaction submission failed")

	// ErrPostConfirmationHook is returned when the after or afterSafe hook fails
	// after the on-chain work already succeeded. It is not retryable.
	ErrPostConfirmationHook = errors.New("post-confirmation hook failed")

	// ErrInvariant is returned on a programming contract breach
	ErrInvariant = errors.New("invariant violation")

	// ErrRetryInProgress is returned when an attempt is already running
	ErrRetryInProgress = errors.New("retry already in progress")

	// ErrAttemptIncomplete is returned when an item stopped the attempt
	ErrAttemptIncomplete = errors.New("attempt incomplete")

	// ErrNothingToRetry is returned by Retry once the flow completed
	ErrNothingToRetry = errors.New("nothing to retry")
)

const userRejectionMarker = "user rejected transaction"

// IsUserRejection reports whether err signals a declined signature.
// Wallets only signal rejection through the error message, so the match is textual.
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), userRejectionMarker)
}

// IsRetryable reports whether err leaves the flow resumable through Retry
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrPostConfirmationHook), errors.Is(err, ErrInvariant), errors.Is(err, ErrRetryInProgress):
		return false
	default:
		return true
	}
}

// classifySubmission maps a signer or backend error onto the item status it
// leaves behind and the taxonomy error stored for the attempt.
func classifySubmission(ctx context.Context, err error) (domain.TimelineStatus, error) {
	switch {
	case IsUserRejection(err):
		if errors.Is(err, ErrUserRejected) {
			return domain.StatusRejected, err
		}
		return domain.StatusRejected, fmt.Errorf("%w: %w", ErrUserRejected, err)
	case errors.Is(err, context.Canceled), ctx.Err() != nil:
		return domain.StatusCancelled, fmt.Errorf("%w: %w", ErrSubmission, err)
	default:
		return domain.StatusFailed, fmt.Errorf("%w: %w", ErrSubmission, err)
	}
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
