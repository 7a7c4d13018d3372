// Package events encodes ledger outbox events for the brokers. Messages are protobuf encoded
// google.protobuf.Struct values so consumers in any language can read them without our stubs.
package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ArdaAlp/Binary-Power/internal/models"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrMalformedEvent = errors.New("events: malformed ledger event")

type LedgerEvent struct {
	Name        string
	AggregateID int64
	Payload     *models.LedgerEventPayload
}

func Marshal(e *models.OutboxEvent) ([]byte, error) {
	payload := map[string]any{}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("events: decode outbox payload error %w", err)
	}

	msg, err := structpb.NewStruct(map[string]any{
		"event_uuid":   e.UUID,
		"event_name":   e.Name,
		"aggregate_id": e.AggregateID,
		"payload":      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("events: build message error %w", err)
	}

	return proto.Marshal(msg)
}

func Unmarshal(b []byte) (*LedgerEvent, error) {
	msg := &structpb.Struct{}
	if err := proto.Unmarshal(b, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	f := msg.GetFields()
	body := f["payload"].GetStructValue()
	name := f["event_name"].GetStringValue()
	if body == nil || name == "" {
		return nil, fmt.Errorf("%w: name or payload missing", ErrMalformedEvent)
	}

	raw, err := json.Marshal(body.AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	p := &models.LedgerEventPayload{}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if p.EventUUID == "" {
		p.EventUUID = f["event_uuid"].GetStringValue()
	}

	return &LedgerEvent{
		Name:        name,
		AggregateID: int64(f["aggregate_id"].GetNumberValue()),
		Payload:     p,
	}, nil
}
