package handlers

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

// Requests and responses travel as google.protobuf.Struct. Ids are numbers or numeric strings,
// money is always a decimal string so no precision is lost on the way.

type fieldError struct {
	field  string
	reason string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.reason)
}

func idField(s *structpb.Struct, name string) (int64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, &fieldError{field: name, reason: "is required"}
	}

	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if n != math.Trunc(n) || n <= 0 || n > 1<<53 {
			return 0, &fieldError{field: name, reason: "must be a positive integer"}
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil || n <= 0 {
			return 0, &fieldError{field: name, reason: "must be a positive integer"}
		}
		return n, nil
	default:
		return 0, &fieldError{field: name, reason: "must be a positive integer"}
	}
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", &fieldError{field: name, reason: "is required"}
	}

	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", &fieldError{field: name, reason: "must be a string"}
	}

	return str.StringValue, nil
}

// maxAmountLen fits any amount the ledger accepts with room for a sign and padding zeros.
const maxAmountLen = 40

// amountField parses a decimal string. Range and scale checks belong to the ledger.
func amountField(s *structpb.Struct, name string, required bool) (decimal.Decimal, error) {
	if _, ok := s.GetFields()[name]; !ok && !required {
		return decimal.Zero, nil
	}

	raw, err := stringField(s, name)
	if err != nil {
		return decimal.Zero, err
	}

	if len(raw) > maxAmountLen {
		return decimal.Zero, &fieldError{field: name, reason: "is too long"}
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &fieldError{field: name, reason: "must be a decimal string"}
	}

	return amount, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func accountMessage(a *models.Account) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":         a.ID,
		"name":       a.Name,
		"phone":      a.Phone,
		"balance":    money(a.Balance),
		"created_at": a.CreatedAt.Format(time.RFC3339Nano),
	})
}

func transferMessage(t *models.Transfer) map[string]any {
	m := map[string]any{
		"id":              t.ID,
		"from_account_id": t.FromAccountID,
		"to_account_id":   t.ToAccountID,
		"amount":          money(t.Amount),
		"status":          t.Status,
		"created_at":      t.CreatedAt.Format(time.RFC3339Nano),
	}
	if t.IdempotencyKey != nil {
		m["idempotency_key"] = *t.IdempotencyKey
	}

	return m
}
