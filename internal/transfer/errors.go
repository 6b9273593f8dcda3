package transfer

import (
	"errors"
	"fmt"
)

// Business-rule failures. The messages are caller-facing: they are recorded
// verbatim as the memo of the Failed ledger entry and returned verbatim in
// the transfer result.
var (
	// ErrInvalidAmount indicates the requested amount is not a positive value.
	ErrInvalidAmount = errors.New("Invalid amount.")
	// ErrInsufficientBalance indicates the sending account cannot cover the amount.
	ErrInsufficientBalance = errors.New("Insufficient balance.")
)

// Participant roles for not-found failures.
const (
	RoleSending   = "Sending"
	RoleReceiving = "Receiving"
)

// AccountNotFoundError indicates one of the two participants does not exist.
type AccountNotFoundError struct {
	Role          string
	AccountNumber int64
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("%s account %d not found.", e.Role, e.AccountNumber)
}

// Stable failure labels for metrics.
const (
	labelInvalidAmount       = "invalid_amount"
	labelSourceNotFound      = "source_not_found"
	labelDestinationNotFound = "destination_not_found"
	labelInsufficientBalance = "insufficient_balance"
	labelInfrastructure      = "infrastructure"
)

// failureLabel classifies a transfer failure for metrics. Anything outside
// the business-rule taxonomy counts as an infrastructure failure.
func failureLabel(err error) string {
	var notFound *AccountNotFoundError
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return labelInvalidAmount
	case errors.Is(err, ErrInsufficientBalance):
		return labelInsufficientBalance
	case errors.As(err, &notFound):
		if notFound.Role == RoleSending {
			return labelSourceNotFound
		}
		return labelDestinationNotFound
	default:
		return labelInfrastructure
	}
}
