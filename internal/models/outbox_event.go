package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OutboxEventNewState        = "new"
	OutboxEventProcessingState = "processing"
	OutboxEventFinishedState   = "finished"
	OutboxEventFailedState     = "failed"
)

const (
	TransferCommittedEventName = "transfer_committed"
	AccountToppedUpEventName   = "account_topped_up"
)

type OutboxEvent struct {
	UUID        string
	Name        string
	State       string
	AggregateID int64
	// JSON encoded LedgerEventPayload
	Payload   []byte
	CreatedAt time.Time
	// set when the event moves to processing
	ReservedAt time.Time
}

// LedgerEventPayload is the body of both ledger events. TransferID, FromAccountID and
// IdempotencyKey are empty for top ups.
type LedgerEventPayload struct {
	EventUUID      string          `json:"event_uuid"`
	TransferID     int64           `json:"transfer_id,omitempty"`
	FromAccountID  int64           `json:"from_account_id,omitempty"`
	ToAccountID    int64           `json:"to_account_id"`
	Amount         decimal.Decimal `json:"amount"`
	Balance        decimal.Decimal `json:"balance"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func NewOutboxEvent(uuid string, name string, aggregateID int64, payload *LedgerEventPayload) (*OutboxEvent, error) {
	payload.EventUUID = uuid

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("models/outbox_event: marshal payload error %w", err)
	}

	return &OutboxEvent{
		UUID:        uuid,
		Name:        name,
		State:       OutboxEventNewState,
		AggregateID: aggregateID,
		Payload:     b,
	}, nil
}

func (e *OutboxEvent) DecodePayload() (*LedgerEventPayload, error) {
	p := &LedgerEventPayload{}
	if err := json.Unmarshal(e.Payload, p); err != nil {
		return nil, fmt.Errorf("models/outbox_event: payload invalid format error, expected json %w", err)
	}

	return p, nil
}
