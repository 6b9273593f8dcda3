package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/models"
)

// Store is an in-memory implementation of both the account store and the
// ledger store. A single mutex guards all state; every read hands out copies
// so callers can never mutate internal state.
type Store struct {
	mu       sync.Mutex
	accounts map[int64]models.Account
	entries  []models.LedgerEntry
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]models.Account),
	}
}

// SeedAccounts provisions accounts directly. Provisioning happens out-of-band
// in real deployments; this is the in-memory equivalent, also used by tests.
func (s *Store) SeedAccounts(accounts ...models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range accounts {
		s.accounts[a.AccountNumber] = a
	}
}

// Get implements interfaces.AccountStore.
func (s *Store) Get(ctx context.Context, accountNumber int64) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountNumber]
	if !ok {
		return models.Account{}, interfaces.ErrAccountNotFound
	}
	return account, nil
}

// AdjustBalance implements interfaces.AccountStore. The check and the write
// happen under one lock hold, so concurrent adjustments on the same account
// serialize instead of losing updates.
func (s *Store) AdjustBalance(ctx context.Context, accountNumber int64, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[accountNumber]
	if !ok {
		return decimal.Zero, interfaces.ErrAccountNotFound
	}

	newBalance := account.Balance.Add(delta)
	if delta.IsNegative() && newBalance.IsNegative() {
		return decimal.Zero, interfaces.ErrInsufficientFunds
	}

	account.Balance = newBalance
	s.accounts[accountNumber] = account
	return newBalance, nil
}

// Append implements interfaces.LedgerStore.
func (s *Store) Append(ctx context.Context, entry models.LedgerEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

// EntriesByAccount implements interfaces.LedgerStore.
func (s *Store) EntriesByAccount(ctx context.Context, accountNumber int64) ([]models.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.LedgerEntry
	for _, e := range s.entries {
		if e.Involves(accountNumber) {
			result = append(result, e)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// Compile-time checks: Store satisfies both store contracts.
var (
	_ interfaces.AccountStore = (*Store)(nil)
	_ interfaces.LedgerStore  = (*Store)(nil)
)
