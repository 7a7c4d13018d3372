package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const TransferCommittedStatus = "committed"

type Transfer struct {
	ID             int64
	FromAccountID  int64
	ToAccountID    int64
	Amount         decimal.Decimal
	Status         string
	IdempotencyKey *string
	CreatedAt      time.Time
}

// Involves reports whether the transfer debits or credits accountID.
func (t *Transfer) Involves(accountID int64) bool {
	return t.FromAccountID == accountID || t.ToAccountID == accountID
}

// SameRequest reports whether t records the given money movement, used to tell an
// idempotent replay from a key reused for a different transfer.
func (t *Transfer) SameRequest(fromID, toID int64, amount decimal.Decimal) bool {
	return t.FromAccountID == fromID && t.ToAccountID == toID && t.Amount.Equal(amount)
}
