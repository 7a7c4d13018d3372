package ledger

import (
	"context"
	"iter"

	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/shopspring/decimal"
)

// AccountStore is the transactional account table the ledger runs against.
type AccountStore interface {
	Create(ctx context.Context, in *models.Account) error
	Get(ctx context.Context, id int64) (*models.Account, error)
	GetBalance(ctx context.Context, id int64) (decimal.Decimal, bool, error)
	Exists(ctx context.Context, id int64) (bool, error)

	// WithTransaction commits when fn returns nil and rolls back otherwise. Nothing fn does
	// is visible to other transactions before the commit.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx AccountTx) error) error
}

// AccountTx is the handle passed to WithTransaction callbacks.
type AccountTx interface {
	// Lock takes exclusive row locks in ascending id order whatever the argument order is.
	// It must be called once with every account the transaction is going to mutate.
	Lock(ctx context.Context, ids ...int64) error
	GetBalance(ctx context.Context, id int64) (decimal.Decimal, bool, error)
	// ApplyDelta adds delta to the balance and returns the result. It fails with
	// ErrInsufficientFunds, leaving the balance untouched, when the result would be negative,
	// and with ErrInvalidAmount when it would reach MaxAmount.
	ApplyDelta(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error)
}

// TransferLog is the append-only history of committed transfers.
type TransferLog interface {
	// Append assigns ID and CreatedAt. The record becomes visible when tx commits.
	Append(ctx context.Context, tx AccountTx, in *models.Transfer) error
	FindByIdempotencyKey(ctx context.Context, tx AccountTx, key string) (*models.Transfer, error)
	// ListByAccount yields transfers touching accountID ordered by created_at then id. Every
	// range over the returned sequence starts from the beginning.
	ListByAccount(ctx context.Context, accountID int64) iter.Seq2[*models.Transfer, error]
}

// EventsOutbox stores events in the transaction that produced them.
type EventsOutbox interface {
	Save(ctx context.Context, tx AccountTx, in *models.OutboxEvent) error
}

// TxUnwrapper is implemented by AccountTx decorators so stores can reach their own handle.
type TxUnwrapper interface {
	Unwrap() AccountTx
}

// UnwrapTx walks decorators down to the store specific transaction type T.
func UnwrapTx[T AccountTx](tx AccountTx) (T, bool) {
	for tx != nil {
		if t, ok := tx.(T); ok {
			return t, true
		}

		u, ok := tx.(TxUnwrapper)
		if !ok {
			break
		}
		tx = u.Unwrap()
	}

	var zero T
	return zero, false
}
