package handlers

import (
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

func TestIDField(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"num":      7,
		"str":      "12",
		"fraction": 1.5,
		"negative": -3,
		"text":     "abc",
		"flag":     true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if id, err := idField(s, "num"); err != nil || id != 7 {
		t.Fatalf("num id=%d err=%v", id, err)
	}
	if id, err := idField(s, "str"); err != nil || id != 12 {
		t.Fatalf("str id=%d err=%v", id, err)
	}

	for _, name := range []string{"fraction", "negative", "text", "flag", "missing"} {
		if _, err := idField(s, name); err == nil {
			t.Errorf("idField(%s) accepted", name)
		}
	}
}

func TestAmountField(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"amount": "10.50",
		"bad":    "ten",
		"long":   "1" + strings.Repeat("0", 60),
		"exp":    "1e2000000",
	})
	if err != nil {
		t.Fatal(err)
	}

	if a, err := amountField(s, "amount", true); err != nil || a.StringFixed(2) != "10.50" {
		t.Fatalf("amount=%s err=%v", a, err)
	}
	if _, err := amountField(s, "bad", true); err == nil {
		t.Fatal("bad amount accepted")
	}
	if _, err := amountField(s, "long", true); err == nil {
		t.Fatal("oversized amount string accepted")
	}
	// short but huge values parse here and are rejected by the ledger
	if a, err := amountField(s, "exp", true); err != nil || a.Exponent() != 2000000 {
		t.Fatalf("exp amount=%v err=%v", a.Exponent(), err)
	}
	if _, err := amountField(s, "missing", true); err == nil {
		t.Fatal("missing required amount accepted")
	}
	if a, err := amountField(s, "missing", false); err != nil || !a.IsZero() {
		t.Fatalf("optional amount=%s err=%v", a, err)
	}
}
