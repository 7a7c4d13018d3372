package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int64
	Name      string
	Phone     string
	Balance   decimal.Decimal
	CreatedAt time.Time
}
