// Package ledger moves money between accounts. Every operation runs in a single store
// transaction, so balances never go negative and a transfer is either fully applied together
// with its record or not at all.
package ledger

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	amountScale = 2
	// integer digits a NUMERIC(20,2) column holds
	amountDigits = 18
)

// MaxAmount is the exclusive upper bound for amounts and balances.
var MaxAmount = decimal.New(1, amountDigits)

type Ledger struct {
	accounts  AccountStore
	transfers TransferLog
	outbox    EventsOutbox
	lg        *logging.ZapLogger
	txTimeout time.Duration
	newUUID   func() string
}

// NewLedger builds the ledger. outbox may be nil, in which case no events are recorded.
func NewLedger(
	accounts AccountStore,
	transfers TransferLog,
	outbox EventsOutbox,
	lg *logging.ZapLogger,
	cfg *config.Config,
) *Ledger {
	return &Ledger{
		accounts:  accounts,
		transfers: transfers,
		outbox:    outbox,
		lg:        lg,
		txTimeout: time.Duration(cfg.TxTimeout) * time.Millisecond,
		newUUID:   uuid.NewString,
	}
}

type transferOptions struct {
	idempotencyKey string
}

type TransferOption func(*transferOptions)

// WithIdempotencyKey makes retried transfers with the same key return the first committed
// record instead of moving money again.
func WithIdempotencyKey(key string) TransferOption {
	return func(o *transferOptions) {
		o.idempotencyKey = key
	}
}

func (l *Ledger) OpenAccount(ctx context.Context, name, phone string, initialBalance decimal.Decimal) (*models.Account, error) {
	if name == "" || phone == "" {
		return nil, ErrInvalidAccount
	}
	if !inRange(initialBalance) || initialBalance.IsNegative() || !hasValidScale(initialBalance) {
		return nil, ErrInvalidAmount
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	account := &models.Account{Name: name, Phone: phone, Balance: initialBalance}
	if err := l.accounts.Create(ctx, account); err != nil {
		l.lg.ErrorCtx(ctx, "open account failed", zap.Error(err))
		return nil, storageFailure(err)
	}

	l.lg.InfoCtx(ctx, "account opened", zap.Int64("account_id", account.ID))
	return account, nil
}

func (l *Ledger) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	account, err := l.accounts.Get(ctx, id)
	if err != nil {
		return nil, storageFailure(err)
	}

	return account, nil
}

func (l *Ledger) Balance(ctx context.Context, id int64) (decimal.Decimal, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	balance, ok, err := l.accounts.GetBalance(ctx, id)
	if err != nil {
		return decimal.Zero, storageFailure(err)
	}
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}

	return balance, nil
}

func (l *Ledger) TopUp(ctx context.Context, accountID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	ctx = l.lg.WithContextFields(ctx, zap.Int64("account_id", accountID), zap.Stringer("amount", amount))

	var balance decimal.Decimal
	err := l.accounts.WithTransaction(ctx, func(ctx context.Context, tx AccountTx) error {
		if err := tx.Lock(ctx, accountID); err != nil {
			return err
		}

		var err error
		if balance, err = tx.ApplyDelta(ctx, accountID, amount); err != nil {
			return fmt.Errorf("ledger: credit account error %w", err)
		}

		return l.saveEvent(ctx, tx, models.AccountToppedUpEventName, accountID, &models.LedgerEventPayload{
			ToAccountID: accountID,
			Amount:      amount,
			Balance:     balance,
			OccurredAt:  time.Now().UTC(),
		})
	})
	if err != nil {
		err = storageFailure(err)
		l.logRejected(ctx, "top up rejected", err)
		return decimal.Zero, err
	}

	l.lg.InfoCtx(ctx, "top up committed", zap.Stringer("balance", balance))
	return balance, nil
}

// Transfer debits fromID and credits toID in one transaction and returns the committed record
// with the sender's balance after the debit.
func (l *Ledger) Transfer(
	ctx context.Context,
	fromID, toID int64,
	amount decimal.Decimal,
	opts ...TransferOption,
) (*models.Transfer, decimal.Decimal, error) {
	o := transferOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateAmount(amount); err != nil {
		return nil, decimal.Zero, err
	}
	if fromID == toID {
		return nil, decimal.Zero, ErrSameAccount
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	ctx = l.lg.WithContextFields(
		ctx,
		zap.Int64("from_account_id", fromID),
		zap.Int64("to_account_id", toID),
		zap.Stringer("amount", amount),
	)

	var (
		transfer      *models.Transfer
		senderBalance decimal.Decimal
		replayed      bool
	)

	err := l.accounts.WithTransaction(ctx, func(ctx context.Context, tx AccountTx) error {
		if err := tx.Lock(ctx, fromID, toID); err != nil {
			return err
		}

		if o.idempotencyKey != "" {
			prev, err := l.transfers.FindByIdempotencyKey(ctx, tx, o.idempotencyKey)
			if err != nil {
				return fmt.Errorf("ledger: find transfer by idempotency key error %w", err)
			}

			if prev != nil {
				if !prev.SameRequest(fromID, toID, amount) {
					return ErrIdempotencyConflict
				}

				balance, _, err := tx.GetBalance(ctx, fromID)
				if err != nil {
					return fmt.Errorf("ledger: read sender balance error %w", err)
				}

				transfer, senderBalance, replayed = prev, balance, true
				return nil
			}
		}

		balance, ok, err := tx.GetBalance(ctx, fromID)
		if err != nil {
			return fmt.Errorf("ledger: read sender balance error %w", err)
		}
		if !ok {
			return ErrAccountNotFound
		}
		if balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		if senderBalance, err = tx.ApplyDelta(ctx, fromID, amount.Neg()); err != nil {
			return fmt.Errorf("ledger: debit sender error %w", err)
		}

		if _, err := tx.ApplyDelta(ctx, toID, amount); err != nil {
			return fmt.Errorf("ledger: credit receiver error %w", err)
		}

		t := &models.Transfer{
			FromAccountID: fromID,
			ToAccountID:   toID,
			Amount:        amount,
			Status:        models.TransferCommittedStatus,
		}
		if o.idempotencyKey != "" {
			key := o.idempotencyKey
			t.IdempotencyKey = &key
		}

		if err := l.transfers.Append(ctx, tx, t); err != nil {
			return fmt.Errorf("ledger: append transfer error %w", err)
		}

		transfer = t
		return l.saveEvent(ctx, tx, models.TransferCommittedEventName, fromID, &models.LedgerEventPayload{
			TransferID:     t.ID,
			FromAccountID:  fromID,
			ToAccountID:    toID,
			Amount:         amount,
			Balance:        senderBalance,
			IdempotencyKey: o.idempotencyKey,
			OccurredAt:     t.CreatedAt,
		})
	})
	if err != nil {
		err = storageFailure(err)
		l.logRejected(ctx, "transfer rejected", err)
		return nil, decimal.Zero, err
	}

	if replayed {
		l.lg.InfoCtx(ctx, "transfer replayed", zap.Int64("transfer_id", transfer.ID))
	} else {
		l.lg.InfoCtx(ctx, "transfer committed", zap.Int64("transfer_id", transfer.ID))
	}

	return transfer, senderBalance, nil
}

// ListTransfers yields the account history oldest first. A missing account yields a single
// ErrAccountNotFound.
func (l *Ledger) ListTransfers(ctx context.Context, accountID int64) iter.Seq2[*models.Transfer, error] {
	return func(yield func(*models.Transfer, error) bool) {
		ok, err := l.accounts.Exists(ctx, accountID)
		if err != nil {
			yield(nil, storageFailure(err))
			return
		}
		if !ok {
			yield(nil, ErrAccountNotFound)
			return
		}

		for t, err := range l.transfers.ListByAccount(ctx, accountID) {
			if err != nil {
				yield(nil, storageFailure(err))
				return
			}

			if !yield(t, nil) {
				return
			}
		}
	}
}

func (l *Ledger) saveEvent(ctx context.Context, tx AccountTx, name string, aggregateID int64, payload *models.LedgerEventPayload) error {
	if l.outbox == nil {
		return nil
	}

	e, err := models.NewOutboxEvent(l.newUUID(), name, aggregateID, payload)
	if err != nil {
		return err
	}

	if err := l.outbox.Save(ctx, tx, e); err != nil {
		return fmt.Errorf("ledger: save %s event error %w", name, err)
	}

	return nil
}

func (l *Ledger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.txTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, l.txTimeout)
}

func (l *Ledger) logRejected(ctx context.Context, msg string, err error) {
	if IsRetryable(err) {
		l.lg.ErrorCtx(ctx, msg, zap.Error(err))
		return
	}

	l.lg.DebugCtx(ctx, msg, zap.Error(err))
}

func validateAmount(amount decimal.Decimal) error {
	if !inRange(amount) || !amount.IsPositive() || !hasValidScale(amount) {
		return ErrInvalidAmount
	}

	return nil
}

// inRange checks the exponent before comparing, so values like 1e2000000 are rejected without
// being expanded.
func inRange(amount decimal.Decimal) bool {
	if exp := amount.Exponent(); exp >= amountDigits || exp < -amountDigits {
		return false
	}

	return amount.Abs().LessThan(MaxAmount)
}

func hasValidScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(amountScale))
}
