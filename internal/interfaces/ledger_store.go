package interfaces

import (
	"context"

	"github.com/andrumolt/transfer-ledger/internal/models"
)

// LedgerStore is the append-only durable log of transfer records.
type LedgerStore interface {
	// Append durably writes one entry and returns its id. Appends are never
	// rejected for business reasons, only on infrastructure failure. A zero
	// entry timestamp defaults to the write time.
	Append(ctx context.Context, entry models.LedgerEntry) (string, error)

	// EntriesByAccount returns every entry where the account appears as
	// sender or receiver, ordered by timestamp descending. The slice is
	// materialized fresh per call and safe to use concurrently with appends.
	EntriesByAccount(ctx context.Context, accountNumber int64) ([]models.LedgerEntry, error)
}
