package transfer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/models"
	"github.com/andrumolt/transfer-ledger/internal/storage/memory"
)

const (
	acctA int64 = 1001
	acctB int64 = 1002
	acctC int64 = 1003
	acctD int64 = 1004

	missingAcct int64 = 999999
)

func newTestStore() *memory.Store {
	store := memory.NewStore()
	store.SeedAccounts(
		models.Account{AccountNumber: acctA, Balance: decimal.NewFromInt(100)},
		models.Account{AccountNumber: acctB, Balance: decimal.NewFromInt(50)},
		models.Account{AccountNumber: acctC, Balance: decimal.NewFromInt(200)},
		models.Account{AccountNumber: acctD, Balance: decimal.NewFromInt(200)},
	)
	return store
}

func balanceOf(t *testing.T, store interfaces.AccountStore, accountNumber int64) decimal.Decimal {
	t.Helper()
	account, err := store.Get(context.Background(), accountNumber)
	if err != nil {
		t.Fatalf("Get(%d) failed: %v", accountNumber, err)
	}
	return account.Balance
}

func entriesOf(t *testing.T, store interfaces.LedgerStore, accountNumber int64) []models.LedgerEntry {
	t.Helper()
	entries, err := store.EntriesByAccount(context.Background(), accountNumber)
	if err != nil {
		t.Fatalf("EntriesByAccount(%d) failed: %v", accountNumber, err)
	}
	return entries
}

func TestTransferComplete(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)

	result := engine.Transfer(context.Background(), acctA, acctB, decimal.NewFromInt(30), "Shopping")

	if result.Status != models.StatusComplete {
		t.Fatalf("expected Complete, got %s (%s)", result.Status, result.Reason)
	}
	if result.Reason != "" {
		t.Errorf("expected empty reason, got %q", result.Reason)
	}

	// Conservation: 100+50 before, 70+80 after.
	if got := balanceOf(t, store, acctA); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("sender balance = %s, want 70", got)
	}
	if got := balanceOf(t, store, acctB); !got.Equal(decimal.NewFromInt(80)) {
		t.Errorf("receiver balance = %s, want 80", got)
	}

	entries := entriesOf(t, store, acctA)
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Status != models.StatusComplete {
		t.Errorf("entry status = %s, want Complete", e.Status)
	}
	if e.Memo != "Shopping" {
		t.Errorf("entry memo = %q, want the caller memo", e.Memo)
	}
	if !e.Amount.Equal(decimal.NewFromInt(30)) {
		t.Errorf("entry amount = %s, want 30", e.Amount)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Error("entry must carry an id and a timestamp")
	}
}

func TestTransferValidationOrder(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)

	// The amount is checked before the sender's existence: a missing sender
	// with a negative amount fails as an invalid amount.
	result := engine.Transfer(context.Background(), missingAcct, acctB, decimal.NewFromInt(-5), "x")

	if result.Status != models.StatusFailed {
		t.Fatal("expected Failed")
	}
	if result.Reason != "Invalid amount." {
		t.Errorf("reason = %q, want %q", result.Reason, "Invalid amount.")
	}

	entries := entriesOf(t, store, missingAcct)
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Status != models.StatusFailed || entries[0].Memo != "Invalid amount." {
		t.Errorf("entry = %s %q, want Failed with the reason as memo", entries[0].Status, entries[0].Memo)
	}
}

func TestTransferZeroAmountInvalid(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)

	result := engine.Transfer(context.Background(), acctA, acctB, decimal.Zero, "x")
	if result.Reason != "Invalid amount." {
		t.Errorf("reason = %q, want %q", result.Reason, "Invalid amount.")
	}
}

func TestTransferSourceNotFound(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)

	result := engine.Transfer(context.Background(), missingAcct, acctB, decimal.NewFromInt(5), "x")

	want := "Sending account 999999 not found."
	if result.Status != models.StatusFailed || result.Reason != want {
		t.Errorf("got %s %q, want Failed %q", result.Status, result.Reason, want)
	}
}

func TestTransferDestinationNotFound(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)

	result := engine.Transfer(context.Background(), acctA, missingAcct, decimal.NewFromInt(5), "x")

	want := "Receiving account 999999 not found."
	if result.Status != models.StatusFailed || result.Reason != want {
		t.Errorf("got %s %q, want Failed %q", result.Status, result.Reason, want)
	}
	// The sender is untouched on any validation failure.
	if got := balanceOf(t, store, acctA); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("sender balance = %s, want 100", got)
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)

	result := engine.Transfer(context.Background(), acctA, acctB, decimal.NewFromInt(150), "x")

	if result.Status != models.StatusFailed || result.Reason != "Insufficient balance." {
		t.Errorf("got %s %q, want Failed %q", result.Status, result.Reason, "Insufficient balance.")
	}
	if got := balanceOf(t, store, acctA); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("sender balance = %s, want 100 (unchanged)", got)
	}

	entries := entriesOf(t, store, acctA)
	if len(entries) != 1 {
		t.Fatalf("expected 1 Failed entry, got %d entries", len(entries))
	}
	if entries[0].Status != models.StatusFailed || !entries[0].Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("entry = %s amount %s, want Failed amount 150", entries[0].Status, entries[0].Amount)
	}
}

func TestTransferExactlyOneEntryPerCall(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)
	ctx := context.Background()

	calls := []struct {
		from, to int64
		amount   decimal.Decimal
	}{
		{acctA, acctB, decimal.NewFromInt(10)},      // complete
		{acctA, acctB, decimal.NewFromInt(-1)},      // invalid amount
		{missingAcct, acctB, decimal.NewFromInt(1)}, // source not found
		{acctA, acctB, decimal.NewFromInt(1000)},    // insufficient
	}
	for _, c := range calls {
		engine.Transfer(ctx, c.from, c.to, c.amount, "x")
	}

	entries := entriesOf(t, store, acctB)
	if len(entries) != len(calls) {
		t.Fatalf("expected %d ledger entries, got %d", len(calls), len(entries))
	}
}

// flakyAccountStore fails positive adjustments on one account, simulating an
// infrastructure failure on the credit step.
type flakyAccountStore struct {
	interfaces.AccountStore
	failCreditTo int64
}

func (f *flakyAccountStore) AdjustBalance(ctx context.Context, accountNumber int64, delta decimal.Decimal) (decimal.Decimal, error) {
	if accountNumber == f.failCreditTo && delta.IsPositive() {
		return decimal.Zero, errors.New("account store unavailable")
	}
	return f.AccountStore.AdjustBalance(ctx, accountNumber, delta)
}

func TestTransferCreditFailureKeepsDebit(t *testing.T) {
	store := newTestStore()
	accounts := &flakyAccountStore{AccountStore: store, failCreditTo: acctB}
	engine := NewEngine(accounts, store)

	result := engine.Transfer(context.Background(), acctA, acctB, decimal.NewFromInt(30), "x")

	if result.Status != models.StatusFailed {
		t.Fatal("expected Failed when the credit step fails")
	}
	if result.Reason != "account store unavailable" {
		t.Errorf("reason = %q, want the propagated store error", result.Reason)
	}

	// Without compensation the debit stands: the known inconsistency window.
	if got := balanceOf(t, store, acctA); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("sender balance = %s, want 70 (debit kept)", got)
	}
	if got := balanceOf(t, store, acctB); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("receiver balance = %s, want 50 (credit never applied)", got)
	}

	entries := entriesOf(t, store, acctA)
	if len(entries) != 1 || entries[0].Status != models.StatusFailed {
		t.Fatalf("expected exactly one Failed entry, got %+v", entries)
	}
}

func TestTransferCreditFailureCompensates(t *testing.T) {
	store := newTestStore()
	accounts := &flakyAccountStore{AccountStore: store, failCreditTo: acctB}
	engine := NewEngine(accounts, store, WithCompensation(true))

	result := engine.Transfer(context.Background(), acctA, acctB, decimal.NewFromInt(30), "x")

	if result.Status != models.StatusFailed {
		t.Fatal("expected Failed when the credit step fails")
	}
	if got := balanceOf(t, store, acctA); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("sender balance = %s, want 100 (debit compensated)", got)
	}
}

// failingLedger rejects every append.
type failingLedger struct{}

func (failingLedger) Append(ctx context.Context, entry models.LedgerEntry) (string, error) {
	return "", errors.New("ledger store unavailable")
}

func (failingLedger) EntriesByAccount(ctx context.Context, accountNumber int64) ([]models.LedgerEntry, error) {
	return nil, nil
}

func TestTransferLedgerAppendFailureDoesNotChangeResult(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, failingLedger{})

	result := engine.Transfer(context.Background(), acctA, acctB, decimal.NewFromInt(30), "x")

	if result.Status != models.StatusComplete {
		t.Fatalf("expected Complete despite the failed append, got %s (%s)", result.Status, result.Reason)
	}
	if got := balanceOf(t, store, acctA); !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("sender balance = %s, want 70", got)
	}
}

func TestConcurrentDisjointTransfers(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Result, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0] = engine.Transfer(ctx, acctA, acctB, decimal.NewFromInt(40), "x")
	}()
	go func() {
		defer wg.Done()
		results[1] = engine.Transfer(ctx, acctC, acctD, decimal.NewFromInt(60), "x")
	}()
	wg.Wait()

	for i, r := range results {
		if r.Status != models.StatusComplete {
			t.Fatalf("transfer %d failed: %s", i, r.Reason)
		}
	}

	sumAB := balanceOf(t, store, acctA).Add(balanceOf(t, store, acctB))
	if !sumAB.Equal(decimal.NewFromInt(150)) {
		t.Errorf("A+B = %s, want 150", sumAB)
	}
	sumCD := balanceOf(t, store, acctC).Add(balanceOf(t, store, acctD))
	if !sumCD.Equal(decimal.NewFromInt(400)) {
		t.Errorf("C+D = %s, want 400", sumCD)
	}
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	store := newTestStore()
	engine := NewEngine(store, store)
	ctx := context.Background()

	// Sender holds 100; ten concurrent transfers of 30 can complete at most
	// three times.
	const attempts = 10
	amount := decimal.NewFromInt(30)

	var wg sync.WaitGroup
	results := make([]Result, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = engine.Transfer(ctx, acctA, acctB, amount, "x")
		}(i)
	}
	wg.Wait()

	completed := 0
	for _, r := range results {
		if r.Status == models.StatusComplete {
			completed++
		}
	}
	if completed != 3 {
		t.Errorf("completed = %d, want 3", completed)
	}

	final := balanceOf(t, store, acctA)
	if final.IsNegative() {
		t.Fatalf("sender overdrawn: %s", final)
	}
	moved := decimal.NewFromInt(int64(completed)).Mul(amount)
	if !final.Equal(decimal.NewFromInt(100).Sub(moved)) {
		t.Errorf("sender balance = %s, want 100 - %s", final, moved)
	}

	if entries := entriesOf(t, store, acctA); len(entries) != attempts {
		t.Errorf("expected %d ledger entries, got %d", attempts, len(entries))
	}
}
