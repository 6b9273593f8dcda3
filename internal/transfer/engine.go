package transfer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andrumolt/transfer-ledger/internal/interfaces"
	"github.com/andrumolt/transfer-ledger/internal/metrics"
	"github.com/andrumolt/transfer-ledger/internal/models"
	"github.com/andrumolt/transfer-ledger/internal/models/events"
)

// DefaultTopic is the event topic used when none is configured.
const DefaultTopic = "transfer.recorded"

// Result is the terminal outcome of one transfer attempt. Reason carries the
// failure message verbatim for caller display; it is empty on success.
type Result struct {
	Status models.EntryStatus `json:"status"`
	Reason string             `json:"reason,omitempty"`
}

// Engine orchestrates a single transfer: it validates the request, debits the
// sender, credits the receiver, and appends exactly one ledger entry per
// invocation regardless of outcome.
//
// Per-account mutation is serialized through a per-account mutex map, with the
// pair always locked in ascending account order to avoid deadlocks. Transfers
// on disjoint account pairs proceed fully in parallel.
type Engine struct {
	accounts  interfaces.AccountStore
	entries   interfaces.LedgerStore
	publisher interfaces.EventPublisher
	topic     string
	log       *zap.Logger
	metrics   *metrics.Metrics

	// compensate re-credits the sender when the credit step fails after a
	// successful debit. Off by default; see the Option for the trade-off.
	compensate bool

	mapMu sync.Mutex
	muMap map[int64]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher emits a TransferRecorded event after every ledger append.
// An empty topic falls back to DefaultTopic.
func WithPublisher(p interfaces.EventPublisher, topic string) Option {
	return func(e *Engine) {
		e.publisher = p
		if topic != "" {
			e.topic = topic
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics sets the engine metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCompensation enables a best-effort compensating re-credit of the sender
// when the credit step fails for infrastructure reasons after the debit has
// been applied. Without it, a credit failure leaves the sender debited with
// no corresponding credit and only the Failed ledger entry and log line
// document the gap.
func WithCompensation(enabled bool) Option {
	return func(e *Engine) { e.compensate = enabled }
}

// NewEngine creates a transfer engine over the given stores.
func NewEngine(accounts interfaces.AccountStore, entries interfaces.LedgerStore, opts ...Option) *Engine {
	e := &Engine{
		accounts: accounts,
		entries:  entries,
		topic:    DefaultTopic,
		log:      zap.NewNop(),
		muMap:    make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transfer moves amount from one account to the other and records the attempt.
//
// Validation short-circuits on the first failing check: positive amount, then
// sender existence, then receiver existence, then sufficient balance. Every
// invocation, whatever its outcome, appends exactly one ledger entry: Complete
// with the caller's memo, or Failed with the failure reason as memo. A failed
// append is logged and does not change the returned result.
//
// There is no idempotency: retrying an identical call moves funds again.
func (e *Engine) Transfer(ctx context.Context, from, to int64, amount decimal.Decimal, memo string) Result {
	unlock := e.lockPair(from, to)
	defer unlock()

	if !amount.IsPositive() {
		return e.fail(ctx, from, to, amount, ErrInvalidAmount)
	}

	sender, err := e.accounts.Get(ctx, from)
	if err != nil {
		if interfaces.IsNotFound(err) {
			return e.fail(ctx, from, to, amount, &AccountNotFoundError{Role: RoleSending, AccountNumber: from})
		}
		return e.fail(ctx, from, to, amount, err)
	}

	if _, err := e.accounts.Get(ctx, to); err != nil {
		if interfaces.IsNotFound(err) {
			return e.fail(ctx, from, to, amount, &AccountNotFoundError{Role: RoleReceiving, AccountNumber: to})
		}
		return e.fail(ctx, from, to, amount, err)
	}

	if sender.Balance.LessThan(amount) {
		return e.fail(ctx, from, to, amount, ErrInsufficientBalance)
	}

	if _, err := e.accounts.AdjustBalance(ctx, from, amount.Neg()); err != nil {
		switch {
		case interfaces.IsInsufficientFunds(err):
			return e.fail(ctx, from, to, amount, ErrInsufficientBalance)
		case interfaces.IsNotFound(err):
			return e.fail(ctx, from, to, amount, &AccountNotFoundError{Role: RoleSending, AccountNumber: from})
		default:
			return e.fail(ctx, from, to, amount, err)
		}
	}

	if _, err := e.accounts.AdjustBalance(ctx, to, amount); err != nil {
		// The debit has already been applied; the debit/credit pair is not
		// atomic across accounts.
		if e.compensate {
			if _, cerr := e.accounts.AdjustBalance(ctx, from, amount); cerr != nil {
				e.log.Error("compensating credit failed, books are inconsistent",
					zap.Int64("from", from),
					zap.Int64("to", to),
					zap.String("amount", amount.String()),
					zap.Error(cerr),
				)
			}
		} else {
			e.log.Error("credit failed after debit, sender remains debited",
				zap.Int64("from", from),
				zap.Int64("to", to),
				zap.String("amount", amount.String()),
				zap.Error(err),
			)
		}
		return e.fail(ctx, from, to, amount, err)
	}

	e.record(ctx, models.LedgerEntry{
		SendingAccount:   from,
		ReceivingAccount: to,
		Amount:           amount,
		Status:           models.StatusComplete,
		Memo:             memo,
	})

	e.metrics.ObserveTransfer("complete", "", amount.InexactFloat64())
	e.log.Info("transfer complete",
		zap.Int64("from", from),
		zap.Int64("to", to),
		zap.String("amount", amount.String()),
	)
	return Result{Status: models.StatusComplete}
}

// fail records the Failed ledger entry and builds the caller result. The
// failure reason is propagated verbatim.
func (e *Engine) fail(ctx context.Context, from, to int64, amount decimal.Decimal, cause error) Result {
	reason := cause.Error()

	e.record(ctx, models.LedgerEntry{
		SendingAccount:   from,
		ReceivingAccount: to,
		Amount:           amount,
		Status:           models.StatusFailed,
		Memo:             reason,
	})

	e.metrics.ObserveTransfer("failed", failureLabel(cause), 0)
	e.log.Warn("transfer failed",
		zap.Int64("from", from),
		zap.Int64("to", to),
		zap.String("amount", amount.String()),
		zap.String("reason", reason),
	)
	return Result{Status: models.StatusFailed, Reason: reason}
}

// record appends the single audit entry for this invocation and emits the
// corresponding event. Both writes are best-effort at this point: the
// transfer outcome is already decided and is not altered by a failed append
// or publish.
func (e *Engine) record(ctx context.Context, entry models.LedgerEntry) {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()

	if _, err := e.entries.Append(ctx, entry); err != nil {
		e.metrics.LedgerAppendError()
		e.log.Error("ledger append failed",
			zap.Int64("from", entry.SendingAccount),
			zap.Int64("to", entry.ReceivingAccount),
			zap.String("status", string(entry.Status)),
			zap.Error(err),
		)
		return
	}

	if e.publisher == nil {
		return
	}
	event := events.TransferRecorded{
		EntryID:          entry.ID,
		SendingAccount:   entry.SendingAccount,
		ReceivingAccount: entry.ReceivingAccount,
		Amount:           entry.Amount,
		Status:           entry.Status,
		Memo:             entry.Memo,
		OccurredAt:       entry.Timestamp,
	}
	if err := e.publisher.Publish(ctx, e.topic, event); err != nil {
		e.metrics.PublishError()
		e.log.Warn("event publish failed",
			zap.String("topic", e.topic),
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
	}
}

// lockPair locks the two accounts' mutexes in ascending account order and
// returns the matching unlock. A self-transfer locks once.
func (e *Engine) lockPair(a, b int64) func() {
	if a == b {
		mu := e.accountLock(a)
		mu.Lock()
		return mu.Unlock
	}
	if a > b {
		a, b = b, a
	}
	first, second := e.accountLock(a), e.accountLock(b)
	first.Lock()
	second.Lock()
	return func() {
		second.Unlock()
		first.Unlock()
	}
}

func (e *Engine) accountLock(accountNumber int64) *sync.Mutex {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()

	mu, ok := e.muMap[accountNumber]
	if !ok {
		mu = &sync.Mutex{}
		e.muMap[accountNumber] = mu
	}
	return mu
}
