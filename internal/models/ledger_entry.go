package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus is the terminal outcome recorded for a transfer attempt.
type EntryStatus string

const (
	StatusComplete EntryStatus = "Complete"
	StatusFailed   EntryStatus = "Failed"
)

// LedgerEntry is an immutable audit record of one transfer attempt.
// Exactly one entry is written per engine invocation, successful or not.
// The participant account numbers are weak references: a Failed entry may
// name an account that never existed, and closing an account later does
// not invalidate its history.
type LedgerEntry struct {
	ID               string          `json:"id"`
	SendingAccount   int64           `json:"sending_account"`
	ReceivingAccount int64           `json:"receiving_account"`
	Amount           decimal.Decimal `json:"amount"` // face value attempted, not a signed delta
	Status           EntryStatus     `json:"status"`
	Memo             string          `json:"memo"` // caller memo on success, failure reason otherwise
	Timestamp        time.Time       `json:"timestamp"`
}

// Involves reports whether the account appears on either side of the entry.
func (e LedgerEntry) Involves(accountNumber int64) bool {
	return e.SendingAccount == accountNumber || e.ReceivingAccount == accountNumber
}
