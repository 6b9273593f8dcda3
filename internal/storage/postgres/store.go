package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	_ "github.com/lib/pq"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/models"
)

// Store is the PostgreSQL implementation of the account and ledger stores.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL, configures the pool, and verifies the
// connection with a bounded ping.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStore wraps an existing database handle. Used by tests and by callers
// that manage the pool themselves.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitSchema creates the tables and indexes if they do not exist. The
// non-negative balance invariant is also enforced at the row level.
func (s *Store) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			accountnum BIGINT PRIMARY KEY,
			balance NUMERIC(15,2) NOT NULL CHECK (balance >= 0),
			routingnum BIGINT NOT NULL DEFAULT 0,
			directdepositnum BIGINT NOT NULL DEFAULT 0,
			wiretransfernum BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id TEXT PRIMARY KEY,
			sending_account BIGINT NOT NULL,
			receiving_account BIGINT NOT NULL,
			amount NUMERIC(15,2) NOT NULL,
			status TEXT NOT NULL,
			memo TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_sending ON ledger_entries(sending_account)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_receiving ON ledger_entries(receiving_account)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_created_at ON ledger_entries(created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Get implements interfaces.AccountStore.
func (s *Store) Get(ctx context.Context, accountNumber int64) (models.Account, error) {
	const query = `SELECT accountnum, balance, routingnum, directdepositnum, wiretransfernum
	FROM accounts WHERE accountnum = $1`

	var a models.Account
	err := s.db.QueryRowContext(ctx, query, accountNumber).Scan(
		&a.AccountNumber,
		&a.Balance,
		&a.RoutingNumber,
		&a.DirectDepositNumber,
		&a.WireTransferNumber,
	)
	if err == sql.ErrNoRows {
		return models.Account{}, interfaces.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("get account %d: %w", accountNumber, err)
	}
	return a, nil
}

// AdjustBalance implements interfaces.AccountStore. The adjustment is a
// single conditional UPDATE, so the balance guard and the write are one
// indivisible statement even under concurrent transfers.
func (s *Store) AdjustBalance(ctx context.Context, accountNumber int64, delta decimal.Decimal) (decimal.Decimal, error) {
	const query = `UPDATE accounts SET balance = balance + $2
	WHERE accountnum = $1 AND balance + $2 >= 0
	RETURNING balance`

	var balance decimal.Decimal
	err := s.db.QueryRowContext(ctx, query, accountNumber, delta).Scan(&balance)
	if err == sql.ErrNoRows {
		// Either the account is missing or the guard rejected the delta.
		if _, getErr := s.Get(ctx, accountNumber); getErr != nil {
			return decimal.Zero, getErr
		}
		return decimal.Zero, interfaces.ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("adjust balance of %d: %w", accountNumber, err)
	}
	return balance, nil
}

// CreateAccount provisions an account row. Provisioning is out-of-band for
// the transfer core; this exists for operational tooling and tests.
func (s *Store) CreateAccount(ctx context.Context, a models.Account) error {
	const query = `INSERT INTO accounts (accountnum, balance, routingnum, directdepositnum, wiretransfernum)
	VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		a.AccountNumber, a.Balance, a.RoutingNumber, a.DirectDepositNumber, a.WireTransferNumber)
	if err != nil {
		return fmt.Errorf("create account %d: %w", a.AccountNumber, err)
	}
	return nil
}

// Append implements interfaces.LedgerStore.
func (s *Store) Append(ctx context.Context, entry models.LedgerEntry) (string, error) {
	const query = `INSERT INTO ledger_entries (id, sending_account, receiving_account, amount, status, memo, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.SendingAccount,
		entry.ReceivingAccount,
		entry.Amount,
		string(entry.Status),
		entry.Memo,
		entry.Timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("append ledger entry: %w", err)
	}
	return entry.ID, nil
}

// EntriesByAccount implements interfaces.LedgerStore.
func (s *Store) EntriesByAccount(ctx context.Context, accountNumber int64) ([]models.LedgerEntry, error) {
	const query = `SELECT id, sending_account, receiving_account, amount, status, memo, created_at
	FROM ledger_entries
	WHERE sending_account = $1 OR receiving_account = $1
	ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, fmt.Errorf("query ledger entries of %d: %w", accountNumber, err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var (
			e      models.LedgerEntry
			status string
		)
		if err := rows.Scan(
			&e.ID,
			&e.SendingAccount,
			&e.ReceivingAccount,
			&e.Amount,
			&status,
			&e.Memo,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Status = models.EntryStatus(status)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var (
	_ interfaces.AccountStore = (*Store)(nil)
	_ interfaces.LedgerStore  = (*Store)(nil)
)
