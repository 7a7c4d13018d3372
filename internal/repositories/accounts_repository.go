package repositories

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	pgCheckViolation    = "23514"
	pgNumericOutOfRange = "22003"
)

type AccountsRepository struct {
	strg        AccountsStorage
	lg          *logging.ZapLogger
	lockTimeout time.Duration
}

type AccountsStorage interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

func NewAccountsRepository(strg *storage.Storage, lg *logging.ZapLogger, cfg *config.Config) *AccountsRepository {
	return &AccountsRepository{
		strg:        strg.DB,
		lg:          lg,
		lockTimeout: time.Duration(cfg.LockTimeout) * time.Millisecond,
	}
}

func (rep *AccountsRepository) Create(ctx context.Context, in *models.Account) error {
	row := rep.strg.QueryRow(
		ctx,
		`
			INSERT INTO accounts(name, phone, balance)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`,
		in.Name, in.Phone, in.Balance,
	)

	if err := row.Scan(&in.ID, &in.CreatedAt); err != nil {
		return fmt.Errorf("accounts_repository: create account error %w", err)
	}

	return nil
}

func (rep *AccountsRepository) Get(ctx context.Context, id int64) (*models.Account, error) {
	a := &models.Account{}
	row := rep.strg.QueryRow(
		ctx,
		`
			SELECT id, name, phone, balance, created_at
			FROM accounts
			WHERE id = $1
		`,
		id,
	)

	if err := row.Scan(&a.ID, &a.Name, &a.Phone, &a.Balance, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}

		return nil, fmt.Errorf("accounts_repository: scan account error %w", err)
	}

	return a, nil
}

func (rep *AccountsRepository) GetBalance(ctx context.Context, id int64) (decimal.Decimal, bool, error) {
	return selectBalance(ctx, rep.strg, id)
}

func (rep *AccountsRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := rep.strg.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("accounts_repository: check account error %w", err)
	}

	return exists, nil
}

func (rep *AccountsRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx ledger.AccountTx) error) error {
	tx, err := rep.strg.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("accounts_repository: create tx error %w", err)
	}
	// a cancelled ctx would make Rollback itself fail and leak the connection state
	defer tx.Rollback(context.WithoutCancel(ctx))

	if rep.lockTimeout > 0 {
		if _, err := tx.Exec(
			ctx,
			`SELECT set_config('lock_timeout', $1, true)`,
			strconv.FormatInt(rep.lockTimeout.Milliseconds(), 10)+"ms",
		); err != nil {
			return fmt.Errorf("accounts_repository: set lock timeout error %w", err)
		}
	}

	if err := fn(ctx, &AccountsTx{tx: tx, lg: rep.lg}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("accounts_repository: commit tx error %w", err)
	}

	return nil
}

// AccountsTx is the Postgres ledger.AccountTx. Transfers and outbox events join it through
// ledger.UnwrapTx.
type AccountsTx struct {
	tx pgx.Tx
	lg *logging.ZapLogger
}

func (t *AccountsTx) Lock(ctx context.Context, ids ...int64) error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, id := range sorted {
		var locked int64
		if err := t.tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ledger.ErrAccountNotFound
			}

			return fmt.Errorf("accounts_repository: lock account %d error %w", id, err)
		}
	}

	t.lg.DebugCtx(ctx, "accounts locked", zap.Int64s("account_ids", sorted))
	return nil
}

func (t *AccountsTx) GetBalance(ctx context.Context, id int64) (decimal.Decimal, bool, error) {
	return selectBalance(ctx, t.tx, id)
}

func (t *AccountsTx) ApplyDelta(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := t.tx.QueryRow(
		ctx,
		`
			UPDATE accounts
			SET balance = balance + $1
			WHERE id = $2 AND balance + $1 >= 0
			RETURNING balance
		`,
		delta, id,
	).Scan(&balance)

	if err == nil {
		return balance, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCheckViolation:
			return decimal.Zero, ledger.ErrInsufficientFunds
		case pgNumericOutOfRange:
			return decimal.Zero, ledger.ErrInvalidAmount
		}
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("accounts_repository: apply delta error %w", err)
	}

	_, exists, err := selectBalance(ctx, t.tx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, ledger.ErrAccountNotFound
	}

	return decimal.Zero, ledger.ErrInsufficientFunds
}

type rowQuerier interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

func selectBalance(ctx context.Context, q rowQuerier, id int64) (decimal.Decimal, bool, error) {
	var balance decimal.Decimal
	if err := q.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, id).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}

		return decimal.Zero, false, fmt.Errorf("accounts_repository: select balance error %w", err)
	}

	return balance, true, nil
}
