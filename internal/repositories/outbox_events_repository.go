package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/ArdaAlp/Binary-Power/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type OutboxEventsRepository struct {
	strg OutboxEventsStorage
	lg   *logging.ZapLogger
}

type OutboxEventsStorage interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}

func NewOutboxEventsRepository(strg *storage.Storage, lg *logging.ZapLogger) *OutboxEventsRepository {
	return &OutboxEventsRepository{strg: strg.DB, lg: lg}
}

// Save writes the event inside the ledger transaction, so it commits with the balance change
// that produced it.
func (rep *OutboxEventsRepository) Save(ctx context.Context, tx ledger.AccountTx, in *models.OutboxEvent) error {
	atx, ok := ledger.UnwrapTx[*AccountsTx](tx)
	if !ok {
		return errForeignTx
	}

	_, err := atx.tx.Exec(
		ctx,
		`
			INSERT INTO outbox_events(uuid, name, state, aggregate_id, payload)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING
		`,
		in.UUID, in.Name, in.State, in.AggregateID, in.Payload,
	)

	if err != nil {
		return fmt.Errorf("outbox_events_repository: save event error %w", err)
	}

	return nil
}

// Reserve moves the oldest new event to processing and returns it. Events left in processing
// for longer than lease, e.g. by a crashed worker, are reserved again. Concurrent workers skip
// rows reserved by each other. Returns nil when there is nothing to publish.
func (rep *OutboxEventsRepository) Reserve(ctx context.Context, lease time.Duration) (*models.OutboxEvent, error) {
	tx, err := rep.strg.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("outbox_events_repository: create tx error %w", err)
	}
	defer tx.Rollback(ctx)

	e := &models.OutboxEvent{}
	row := tx.QueryRow(
		ctx,
		`
			SELECT uuid, name, aggregate_id, payload, created_at
			FROM outbox_events
			WHERE state = $1
				OR (state = $2 AND reserved_at < now() - $3::bigint * interval '1 millisecond')
			ORDER BY created_at ASC
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		`,
		models.OutboxEventNewState, models.OutboxEventProcessingState, lease.Milliseconds())

	if err := row.Scan(&e.UUID, &e.Name, &e.AggregateID, &e.Payload, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("outbox_events_repository: scan attributes error %w", err)
	}

	if err := tx.QueryRow(ctx,
		`
			UPDATE outbox_events
			SET state = $1, reserved_at = now()
			WHERE uuid = $2
			RETURNING reserved_at
		`,
		models.OutboxEventProcessingState, e.UUID).Scan(&e.ReservedAt); err != nil {
		return nil, fmt.Errorf("outbox_events_repository: reserve event error %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("outbox_events_repository: commit tx error %w", err)
	}

	e.State = models.OutboxEventProcessingState
	rep.lg.DebugCtx(ctx, "outbox event reserved", zap.String("event_uuid", e.UUID), zap.String("event_name", e.Name))

	return e, nil
}

func (rep *OutboxEventsRepository) SetState(ctx context.Context, uuid string, newState string) error {
	tx, err := rep.strg.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("outbox_events_repository: create tx error %w", err)
	}
	defer tx.Rollback(ctx)

	if err := rep.setStateTX(ctx, uuid, newState, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (rep *OutboxEventsRepository) setStateTX(ctx context.Context, uuid string, newState string, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx,
		`
			UPDATE outbox_events
			SET state = $1
			WHERE uuid = $2
		`,
		newState, uuid); err != nil {
		return fmt.Errorf("outbox_events_repository: set state error %w", err)
	}

	return nil
}
