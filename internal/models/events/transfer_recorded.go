package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrumolt/transfer-ledger/internal/models"
)

// TransferRecorded is emitted after a ledger entry has been durably appended,
// whether the transfer completed or failed.
type TransferRecorded struct {
	EntryID          string             `json:"entry_id"`
	SendingAccount   int64              `json:"sending_account"`
	ReceivingAccount int64              `json:"receiving_account"`
	Amount           decimal.Decimal    `json:"amount"`
	Status           models.EntryStatus `json:"status"`
	Memo             string             `json:"memo"`
	OccurredAt       time.Time          `json:"occurred_at"`
}
