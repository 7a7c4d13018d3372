package transaction_outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/events"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Daemon struct {
	lg             *logging.ZapLogger
	pollInterval   time.Duration
	publishTimeout time.Duration
	lease          time.Duration
	workersCount   int64
	cfg            *Config

	cancaller context.CancelFunc
	wg        sync.WaitGroup
	events    OutboxEventsRepository
	publisher Publisher
}

type OutboxEventsRepository interface {
	// Reserve also returns events stuck in processing for longer than lease.
	Reserve(ctx context.Context, lease time.Duration) (*models.OutboxEvent, error)
	SetState(ctx context.Context, uuid string, newState string) error
}

func NewDaemon(
	lc fx.Lifecycle,
	events OutboxEventsRepository,
	publisher Publisher,
	lg *logging.ZapLogger,
	cfg *Config,
) *Daemon {
	dmn := &Daemon{
		lg:             lg,
		pollInterval:   time.Duration(cfg.PollInterval) * time.Millisecond,
		publishTimeout: time.Duration(cfg.PublishTimeout) * time.Millisecond,
		lease:          time.Duration(cfg.ReservationTimeout) * time.Millisecond,
		events:         events,
		publisher:      publisher,
		workersCount:   cfg.WorkersCount,
		cfg:            cfg,
	}
	lc.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				dmn.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				dmn.Stop()
				return nil
			},
		},
	)

	return dmn
}

func (dmn *Daemon) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	dmn.cancaller = cancel
	ctx = dmn.lg.WithContextFields(ctx, zap.String("name", "outbox_events_daemon"))

	dmn.lg.DebugCtx(ctx, "start publishing outbox events", zap.Any("config", dmn.cfg))

	for i := 0; i < int(dmn.workersCount); i++ {
		wctx := dmn.lg.WithContextFields(ctx, zap.Int("worker_id", i))
		dmn.wg.Add(1)
		go func() {
			defer dmn.wg.Done()

			ticker := time.NewTicker(dmn.pollInterval)
			defer ticker.Stop()

			for {
				select {
				case <-wctx.Done():
					dmn.lg.DebugCtx(wctx, "daemon worker graceful shutdown")
					return
				case <-ticker.C:
					if err := dmn.processEvent(wctx); err != nil {
						dmn.lg.ErrorCtx(wctx, "process event finished error", zap.Error(err))
					}
				}
			}
		}()
	}
}

// Stop cancels the workers and waits for in flight events to settle.
func (dmn *Daemon) Stop() {
	if dmn.cancaller != nil {
		dmn.cancaller()
	}
	dmn.wg.Wait()
}

// processEvent publishes one reserved event. A failed publish puts the event back to new so a
// later tick retries it, an event that cannot be encoded is parked as failed.
func (dmn *Daemon) processEvent(ctx context.Context) error {
	e, err := dmn.events.Reserve(ctx, dmn.lease)
	if err != nil {
		return fmt.Errorf("reserve unpublished event error %w", err)
	}

	if e == nil {
		return nil
	}

	ctx = dmn.lg.WithContextFields(ctx, zap.String("event_uuid", e.UUID), zap.String("event_name", e.Name))
	// state updates must land even when shutdown cancels the worker
	stateCtx := context.WithoutCancel(ctx)

	body, err := events.Marshal(e)
	if err != nil {
		if serr := dmn.events.SetState(stateCtx, e.UUID, models.OutboxEventFailedState); serr != nil {
			return fmt.Errorf("set failed event state error %w", serr)
		}

		return fmt.Errorf("encode event error %w", err)
	}

	pctx, cancel := dmn.withPublishTimeout(ctx)
	defer cancel()

	if err := dmn.publisher.Publish(pctx, e, body); err != nil {
		if serr := dmn.events.SetState(stateCtx, e.UUID, models.OutboxEventNewState); serr != nil {
			return fmt.Errorf("release event error %w", serr)
		}

		return fmt.Errorf("publish event error %w", err)
	}

	if err := dmn.events.SetState(stateCtx, e.UUID, models.OutboxEventFinishedState); err != nil {
		return fmt.Errorf("set finished event state error %w", err)
	}

	dmn.lg.DebugCtx(ctx, "event published")
	return nil
}

func (dmn *Daemon) withPublishTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if dmn.publishTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, dmn.publishTimeout)
}
