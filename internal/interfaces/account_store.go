package interfaces

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/andrumolt/transfer-ledger/internal/models"
)

// Contract errors shared by every AccountStore implementation.
var (
	// ErrAccountNotFound indicates the account number is not provisioned.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientFunds indicates a negative adjustment would drive the
	// balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// AccountStore is the durable mapping from account number to balance and
// static metadata.
type AccountStore interface {
	// Get returns the current state of an account, or ErrAccountNotFound.
	Get(ctx context.Context, accountNumber int64) (models.Account, error)

	// AdjustBalance applies delta to the account's balance and returns the
	// new balance. The read-modify-write is atomic per account, so two
	// concurrent adjustments on the same account never lose an update.
	// Returns ErrAccountNotFound, or ErrInsufficientFunds when delta < 0
	// and balance+delta < 0.
	AdjustBalance(ctx context.Context, accountNumber int64, delta decimal.Decimal) (decimal.Decimal, error)
}

// IsNotFound reports whether err is an ErrAccountNotFound from any store.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsInsufficientFunds reports whether err is an ErrInsufficientFunds.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}
