// Package memory keeps accounts, transfers and outbox events in process memory. It honours
// the same transactional contract as the Postgres repositories: per account locks taken in
// ascending id order, staged writes published atomically on commit.
package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/ledger"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/shopspring/decimal"
)

var errForeignTx = errors.New("memory: transaction does not belong to this store")

type row struct {
	// holds one token while a transaction owns the account
	lock    chan struct{}
	account models.Account
}

type Store struct {
	mu             sync.RWMutex
	accounts       map[int64]*row
	transfers      []*models.Transfer
	byKey          map[string]*models.Transfer
	events         []*models.OutboxEvent
	nextAccountID  int64
	nextTransferID int64
	now            func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[int64]*row),
		byKey:    make(map[string]*models.Transfer),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Create(ctx context.Context, in *models.Account) error {
	if in.Balance.IsNegative() {
		return ledger.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAccountID++
	in.ID = s.nextAccountID
	in.CreatedAt = s.now()
	s.accounts[in.ID] = &row{lock: make(chan struct{}, 1), account: *in}

	return nil
}

func (s *Store) Get(ctx context.Context, id int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}

	cp := r.account
	return &cp, nil
}

func (s *Store) GetBalance(ctx context.Context, id int64) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.accounts[id]
	if !ok {
		return decimal.Zero, false, nil
	}

	return r.account.Balance, true, nil
}

func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[id]
	return ok, nil
}

// TotalBalance sums every account, tests use it to check conservation.
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, r := range s.accounts {
		total = total.Add(r.account.Balance)
	}

	return total
}

// Events returns committed outbox events in commit order.
func (s *Store) Events() []*models.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.events)
}

func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx ledger.AccountTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &tx{
		store:    s,
		held:     make(map[int64]*row),
		balances: make(map[int64]decimal.Decimal),
	}
	defer t.release()

	if err := fn(ctx, t); err != nil {
		return err
	}

	// cancelled before commit: drop staged work
	if err := ctx.Err(); err != nil {
		return err
	}

	return t.commit()
}

func (s *Store) Append(ctx context.Context, atx ledger.AccountTx, in *models.Transfer) error {
	t, ok := ledger.UnwrapTx[*tx](atx)
	if !ok || t.store != s {
		return errForeignTx
	}

	s.mu.Lock()
	s.nextTransferID++
	in.ID = s.nextTransferID
	s.mu.Unlock()

	in.CreatedAt = s.now()
	cp := *in
	t.transfers = append(t.transfers, &cp)

	return nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, atx ledger.AccountTx, key string) (*models.Transfer, error) {
	t, ok := ledger.UnwrapTx[*tx](atx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}

	for _, staged := range t.transfers {
		if staged.IdempotencyKey != nil && *staged.IdempotencyKey == key {
			cp := *staged
			return &cp, nil
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if committed, ok := s.byKey[key]; ok {
		cp := *committed
		return &cp, nil
	}

	return nil, nil
}

func (s *Store) ListByAccount(ctx context.Context, accountID int64) iter.Seq2[*models.Transfer, error] {
	return func(yield func(*models.Transfer, error) bool) {
		s.mu.RLock()
		matched := make([]*models.Transfer, 0)
		for _, t := range s.transfers {
			if t.Involves(accountID) {
				cp := *t
				matched = append(matched, &cp)
			}
		}
		s.mu.RUnlock()

		slices.SortFunc(matched, func(a, b *models.Transfer) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})

		for _, t := range matched {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (s *Store) Save(ctx context.Context, atx ledger.AccountTx, in *models.OutboxEvent) error {
	t, ok := ledger.UnwrapTx[*tx](atx)
	if !ok || t.store != s {
		return errForeignTx
	}

	cp := *in
	cp.CreatedAt = s.now()
	t.events = append(t.events, &cp)

	return nil
}

type tx struct {
	store     *Store
	held      map[int64]*row
	balances  map[int64]decimal.Decimal
	transfers []*models.Transfer
	events    []*models.OutboxEvent
}

func (t *tx) Lock(ctx context.Context, ids ...int64) error {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, id := range sorted {
		if _, ok := t.held[id]; ok {
			continue
		}

		t.store.mu.RLock()
		r, ok := t.store.accounts[id]
		t.store.mu.RUnlock()
		if !ok {
			return ledger.ErrAccountNotFound
		}

		select {
		case r.lock <- struct{}{}:
			t.held[id] = r
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (t *tx) GetBalance(ctx context.Context, id int64) (decimal.Decimal, bool, error) {
	if b, ok := t.balances[id]; ok {
		return b, true, nil
	}

	return t.store.GetBalance(ctx, id)
}

func (t *tx) ApplyDelta(ctx context.Context, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	if _, ok := t.held[id]; !ok {
		if err := t.Lock(ctx, id); err != nil {
			return decimal.Zero, err
		}
	}

	current, _, err := t.GetBalance(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}

	next := current.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ledger.ErrInsufficientFunds
	}
	if !next.LessThan(ledger.MaxAmount) {
		return decimal.Zero, ledger.ErrInvalidAmount
	}

	t.balances[id] = next
	return next, nil
}

func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tr := range t.transfers {
		if tr.IdempotencyKey == nil {
			continue
		}
		if _, dup := s.byKey[*tr.IdempotencyKey]; dup {
			return fmt.Errorf("memory: duplicate idempotency key %w", ledger.ErrIdempotencyConflict)
		}
	}

	for id, balance := range t.balances {
		s.accounts[id].account.Balance = balance
	}

	for _, tr := range t.transfers {
		s.transfers = append(s.transfers, tr)
		if tr.IdempotencyKey != nil {
			s.byKey[*tr.IdempotencyKey] = tr
		}
	}

	s.events = append(s.events, t.events...)

	return nil
}

func (t *tx) release() {
	for id, r := range t.held {
		<-r.lock
		delete(t.held, id)
	}
}
