package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/shopspring/decimal"
)

func account(t *testing.T, s *Store, balance string) int64 {
	t.Helper()
	a := &models.Account{Name: "a", Phone: "p", Balance: decimal.RequireFromString(balance)}
	if err := s.Create(context.Background(), a); err != nil {
		t.Fatal(err)
	}
	return a.ID
}

func TestLockWaitHonoursContext(t *testing.T) {
	s := NewStore()
	id := account(t, s, "10")

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = s.WithTransaction(context.Background(), func(ctx context.Context, tx ledger.AccountTx) error {
			if err := tx.Lock(ctx, id); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.WithTransaction(ctx, func(ctx context.Context, tx ledger.AccountTx) error {
		return tx.Lock(ctx, id)
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want DeadlineExceeded", err)
	}
}

func TestStagedWritesInvisibleUntilCommit(t *testing.T) {
	s := NewStore()
	id := account(t, s, "10")

	err := s.WithTransaction(context.Background(), func(ctx context.Context, tx ledger.AccountTx) error {
		if _, err := tx.ApplyDelta(ctx, id, decimal.RequireFromString("5")); err != nil {
			return err
		}

		if b, _, _ := s.GetBalance(ctx, id); !b.Equal(decimal.RequireFromString("10")) {
			t.Errorf("uncommitted balance visible: %s", b)
		}
		if b, _, _ := tx.GetBalance(ctx, id); !b.Equal(decimal.RequireFromString("15")) {
			t.Errorf("tx balance=%s want=15", b)
		}

		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected abort")
	}

	if b, _, _ := s.GetBalance(context.Background(), id); !b.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("rolled back balance=%s want=10", b)
	}
}

func TestApplyDeltaRejectsOverdraft(t *testing.T) {
	s := NewStore()
	id := account(t, s, "10")

	err := s.WithTransaction(context.Background(), func(ctx context.Context, tx ledger.AccountTx) error {
		_, err := tx.ApplyDelta(ctx, id, decimal.RequireFromString("-10.01"))
		return err
	})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err=%v want ErrInsufficientFunds", err)
	}
}

func TestApplyDeltaRejectsOverflow(t *testing.T) {
	s := NewStore()
	id := account(t, s, "999999999999999999")

	err := s.WithTransaction(context.Background(), func(ctx context.Context, tx ledger.AccountTx) error {
		_, err := tx.ApplyDelta(ctx, id, decimal.RequireFromString("1"))
		return err
	})
	if !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("err=%v want ErrInvalidAmount", err)
	}

	b, _, err := s.GetBalance(context.Background(), id)
	if err != nil || !b.Equal(decimal.RequireFromString("999999999999999999")) {
		t.Fatalf("balance=%s err=%v", b, err)
	}
}

func TestLockUnknownAccount(t *testing.T) {
	s := NewStore()
	id := account(t, s, "1")

	err := s.WithTransaction(context.Background(), func(ctx context.Context, tx ledger.AccountTx) error {
		return tx.Lock(ctx, id, id+100)
	})
	if !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("err=%v want ErrAccountNotFound", err)
	}

	// the lock taken on id before the failure must be released
	err = s.WithTransaction(context.Background(), func(ctx context.Context, tx ledger.AccountTx) error {
		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		return tx.Lock(ctx, id)
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestForeignTransactionRejected(t *testing.T) {
	a, b := NewStore(), NewStore()
	account(t, a, "1")

	err := a.WithTransaction(context.Background(), func(ctx context.Context, tx ledger.AccountTx) error {
		return b.Append(ctx, tx, &models.Transfer{})
	})
	if !errors.Is(err, errForeignTx) {
		t.Fatalf("err=%v want errForeignTx", err)
	}
}
