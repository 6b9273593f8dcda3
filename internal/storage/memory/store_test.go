package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/models"
)

func TestGetNotFound(t *testing.T) {
	store := NewStore()

	if _, err := store.Get(context.Background(), 42); !interfaces.IsNotFound(err) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAdjustBalance(t *testing.T) {
	store := NewStore()
	store.SeedAccounts(models.Account{AccountNumber: 42, Balance: decimal.NewFromInt(100)})
	ctx := context.Background()

	got, err := store.AdjustBalance(ctx, 42, decimal.NewFromInt(-30))
	if err != nil {
		t.Fatalf("AdjustBalance failed: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(70)) {
		t.Errorf("new balance = %s, want 70", got)
	}

	// Draining to exactly zero is allowed.
	if _, err := store.AdjustBalance(ctx, 42, decimal.NewFromInt(-70)); err != nil {
		t.Fatalf("drain to zero failed: %v", err)
	}

	// Going below zero is not.
	if _, err := store.AdjustBalance(ctx, 42, decimal.NewFromInt(-1)); !interfaces.IsInsufficientFunds(err) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	if _, err := store.AdjustBalance(ctx, 7, decimal.NewFromInt(1)); !interfaces.IsNotFound(err) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAdjustBalanceConcurrent(t *testing.T) {
	store := NewStore()
	store.SeedAccounts(models.Account{AccountNumber: 42, Balance: decimal.Zero})
	ctx := context.Background()

	const workers = 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AdjustBalance(ctx, 42, decimal.NewFromInt(1)); err != nil {
				t.Errorf("AdjustBalance failed: %v", err)
			}
		}()
	}
	wg.Wait()

	account, err := store.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !account.Balance.Equal(decimal.NewFromInt(workers)) {
		t.Errorf("balance = %s, want %d (no lost updates)", account.Balance, workers)
	}
}

func TestAppendDefaults(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	id, err := store.Append(ctx, models.LedgerEntry{
		SendingAccount:   1,
		ReceivingAccount: 2,
		Amount:           decimal.NewFromInt(10),
		Status:           models.StatusComplete,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id == "" {
		t.Error("expected a generated entry id")
	}

	entries, err := store.EntriesByAccount(ctx, 1)
	if err != nil {
		t.Fatalf("EntriesByAccount failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != id {
		t.Errorf("entry id = %q, want %q", entries[0].ID, id)
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("zero timestamp must default to the write time")
	}
}

func TestEntriesByAccountBothDirectionsOrdered(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	// Appended out of timestamp order on purpose.
	seed := []models.LedgerEntry{
		{SendingAccount: 1, ReceivingAccount: 2, Amount: decimal.NewFromInt(1), Status: models.StatusComplete, Memo: "second", Timestamp: base.Add(time.Hour)},
		{SendingAccount: 2, ReceivingAccount: 1, Amount: decimal.NewFromInt(2), Status: models.StatusComplete, Memo: "third", Timestamp: base.Add(2 * time.Hour)},
		{SendingAccount: 1, ReceivingAccount: 3, Amount: decimal.NewFromInt(3), Status: models.StatusFailed, Memo: "first", Timestamp: base},
		{SendingAccount: 3, ReceivingAccount: 2, Amount: decimal.NewFromInt(4), Status: models.StatusComplete, Memo: "unrelated", Timestamp: base},
	}
	for _, e := range seed {
		if _, err := store.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	entries, err := store.EntriesByAccount(ctx, 1)
	if err != nil {
		t.Fatalf("EntriesByAccount failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries involving account 1, got %d", len(entries))
	}
	wantOrder := []string{"third", "second", "first"}
	for i, want := range wantOrder {
		if entries[i].Memo != want {
			t.Errorf("entries[%d].Memo = %q, want %q", i, entries[i].Memo, want)
		}
	}
}

func TestEntriesByAccountReturnsCopy(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Append(ctx, models.LedgerEntry{
		SendingAccount:   1,
		ReceivingAccount: 2,
		Amount:           decimal.NewFromInt(10),
		Status:           models.StatusComplete,
		Memo:             "original",
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	first, _ := store.EntriesByAccount(ctx, 1)
	first[0].Memo = "mutated"

	second, _ := store.EntriesByAccount(ctx, 1)
	if second[0].Memo != "original" {
		t.Error("ledger entries must be immutable to callers")
	}
}
