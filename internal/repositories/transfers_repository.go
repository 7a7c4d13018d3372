package repositories

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/config"
	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const pgUniqueViolation = "23505"

var errForeignTx = errors.New("repositories: transaction was not opened by AccountsRepository")

type TransfersRepository struct {
	strg     TransfersStorage
	lg       *logging.ZapLogger
	pageSize int
}

type TransfersStorage interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

func NewTransfersRepository(strg *storage.Storage, lg *logging.ZapLogger, cfg *config.Config) *TransfersRepository {
	pageSize := cfg.TransfersPageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	return &TransfersRepository{strg: strg.DB, lg: lg, pageSize: pageSize}
}

func (rep *TransfersRepository) Append(ctx context.Context, tx ledger.AccountTx, in *models.Transfer) error {
	atx, ok := ledger.UnwrapTx[*AccountsTx](tx)
	if !ok {
		return errForeignTx
	}

	err := atx.tx.QueryRow(
		ctx,
		`
			INSERT INTO transfers(from_account_id, to_account_id, amount, status, idempotency_key)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`,
		in.FromAccountID, in.ToAccountID, in.Amount, in.Status, in.IdempotencyKey,
	).Scan(&in.ID, &in.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ledger.ErrIdempotencyConflict
		}

		return fmt.Errorf("transfers_repository: create transfer record error %w", err)
	}

	return nil
}

func (rep *TransfersRepository) FindByIdempotencyKey(ctx context.Context, tx ledger.AccountTx, key string) (*models.Transfer, error) {
	atx, ok := ledger.UnwrapTx[*AccountsTx](tx)
	if !ok {
		return nil, errForeignTx
	}

	t := &models.Transfer{}
	err := atx.tx.QueryRow(
		ctx,
		`
			SELECT id, from_account_id, to_account_id, amount, status, idempotency_key, created_at
			FROM transfers
			WHERE idempotency_key = $1
		`,
		key,
	).Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount, &t.Status, &t.IdempotencyKey, &t.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("transfers_repository: find by idempotency key error %w", err)
	}

	return t, nil
}

// ListByAccount pages with a (created_at, id) cursor so rows appended during iteration never
// shift pages already yielded.
func (rep *TransfersRepository) ListByAccount(ctx context.Context, accountID int64) iter.Seq2[*models.Transfer, error] {
	return func(yield func(*models.Transfer, error) bool) {
		var (
			afterCreatedAt time.Time
			afterID        int64
		)

		for {
			page, err := rep.page(ctx, accountID, afterCreatedAt, afterID)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, t := range page {
				if !yield(t, nil) {
					return
				}
			}

			if len(page) < rep.pageSize {
				return
			}

			last := page[len(page)-1]
			afterCreatedAt, afterID = last.CreatedAt, last.ID
		}
	}
}

func (rep *TransfersRepository) page(ctx context.Context, accountID int64, afterCreatedAt time.Time, afterID int64) ([]*models.Transfer, error) {
	rep.lg.DebugCtx(
		ctx,
		"list transfers page query",
		zap.Int64("account_id", accountID),
		zap.Time("after_created_at", afterCreatedAt),
		zap.Int64("after_id", afterID),
	)

	rows, err := rep.strg.Query(
		ctx,
		`
			SELECT id, from_account_id, to_account_id, amount, status, idempotency_key, created_at
			FROM transfers
			WHERE (from_account_id = $1 OR to_account_id = $1)
				AND (created_at, id) > ($2, $3)
			ORDER BY created_at ASC, id ASC
			LIMIT $4
		`,
		accountID, afterCreatedAt, afterID, rep.pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("transfers_repository: query transfers error %w", err)
	}
	defer rows.Close()

	page := make([]*models.Transfer, 0, rep.pageSize)
	for rows.Next() {
		t := &models.Transfer{}
		if err := rows.Scan(
			&t.ID,
			&t.FromAccountID,
			&t.ToAccountID,
			&t.Amount,
			&t.Status,
			&t.IdempotencyKey,
			&t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("transfers_repository: scan transfers error %w", err)
		}

		page = append(page, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transfers_repository: iterate transfers error %w", err)
	}

	return page, nil
}
