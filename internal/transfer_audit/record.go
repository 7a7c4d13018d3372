package transfer_audit

import (
	"fmt"

	"github.com/ArdaAlp/Binary-Power/internal/events"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func auditRecord(e *events.LedgerEvent) (*models.AuditRecord, error) {
	p := e.Payload

	amount, err := bson.ParseDecimal128(p.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("transfer_audit: amount %s error %w", p.Amount, err)
	}

	balance, err := bson.ParseDecimal128(p.Balance.String())
	if err != nil {
		return nil, fmt.Errorf("transfer_audit: balance %s error %w", p.Balance, err)
	}

	return &models.AuditRecord{
		EventUUID:      p.EventUUID,
		EventName:      e.Name,
		TransferID:     p.TransferID,
		FromAccountID:  p.FromAccountID,
		ToAccountID:    p.ToAccountID,
		Amount:         amount,
		Balance:        balance,
		IdempotencyKey: p.IdempotencyKey,
		OccurredAt:     p.OccurredAt,
	}, nil
}
