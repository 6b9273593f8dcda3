// Package query is the read side of the ledger: current balances, transfer
// history, and categorized aggregation. It never mutates state.
package query

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/models"
)

// FilterAll is the filter value that selects every entry, matching no memo
// in particular.
const FilterAll = "All"

// Dashboard is an account's current state plus its full two-way transfer
// history, newest first.
type Dashboard struct {
	Account models.Account       `json:"account"`
	History []models.LedgerEntry `json:"history"`
}

// History is a possibly filtered transfer history plus per-category totals
// over the same set of entries.
type History struct {
	Transactions []models.LedgerEntry                `json:"transactions"`
	CategorySums map[models.Category]decimal.Decimal `json:"category_sums"`
}

// Service answers balance and history queries from the two stores.
type Service struct {
	accounts interfaces.AccountStore
	entries  interfaces.LedgerStore
}

// NewService creates a query service over the given stores.
func NewService(accounts interfaces.AccountStore, entries interfaces.LedgerStore) *Service {
	return &Service{
		accounts: accounts,
		entries:  entries,
	}
}

// Balance returns the account's current balance.
func (s *Service) Balance(ctx context.Context, accountNumber int64) (decimal.Decimal, error) {
	account, err := s.accounts.Get(ctx, accountNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Dashboard returns the account and its full history, newest first.
func (s *Service) Dashboard(ctx context.Context, accountNumber int64) (Dashboard, error) {
	account, err := s.accounts.Get(ctx, accountNumber)
	if err != nil {
		return Dashboard{}, err
	}

	history, err := s.entries.EntriesByAccount(ctx, accountNumber)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{Account: account, History: history}, nil
}

// HistoryFor returns the account's history, optionally narrowed to entries
// whose memo exactly matches filter, together with the category totals of the
// returned set. An empty filter or FilterAll selects everything. Every
// category key is present in the sums, zero when nothing matched; memos
// outside the closed category set always count toward CategoryOther.
func (s *Service) HistoryFor(ctx context.Context, accountNumber int64, filter string) (History, error) {
	if _, err := s.accounts.Get(ctx, accountNumber); err != nil {
		return History{}, err
	}

	entries, err := s.entries.EntriesByAccount(ctx, accountNumber)
	if err != nil {
		return History{}, err
	}

	if filter != "" && filter != FilterAll {
		filtered := make([]models.LedgerEntry, 0, len(entries))
		for _, e := range entries {
			if e.Memo == filter {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sums := make(map[models.Category]decimal.Decimal, len(models.Categories()))
	for _, c := range models.Categories() {
		sums[c] = decimal.Zero
	}
	for _, e := range entries {
		c := models.CategoryOf(e.Memo)
		sums[c] = sums[c].Add(e.Amount)
	}

	return History{Transactions: entries, CategorySums: sums}, nil
}
