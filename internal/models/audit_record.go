package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// AuditRecord is one ledger event as kept in the audit collection. The event uuid is the
// document id, so a redelivered message never creates a second record.
type AuditRecord struct {
	EventUUID      string          `bson:"_id"`
	EventName      string          `bson:"event_name"`
	TransferID     int64           `bson:"transfer_id,omitempty"`
	FromAccountID  int64           `bson:"from_account_id,omitempty"`
	ToAccountID    int64           `bson:"to_account_id"`
	Amount         bson.Decimal128 `bson:"amount"`
	Balance        bson.Decimal128 `bson:"balance"`
	IdempotencyKey string          `bson:"idempotency_key,omitempty"`
	OccurredAt     time.Time       `bson:"occurred_at"`
	RecordedAt     time.Time       `bson:"recorded_at"`
}
