package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ledger-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the postgres adapters that keeps
// the properties the ledger depends on: row locks held until the
// transaction ends, staged writes invisible to other readers, and the
// non-negative balance check enforced on write.
type memStore struct {
	mu        sync.Mutex
	accounts  map[int64]*memAccount
	byHandle  map[string]int64
	movements []domain.Movement
	nextAccID int64
	nextMvID  int64
	clock     time.Time
}

type memAccount struct {
	lock chan struct{}
	acc  domain.Account
}

type memTx struct {
	pgx.Tx
	store     *memStore
	held      map[int64]bool
	deltas    map[int64]decimal.Decimal
	movements []domain.Movement
	done      bool
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[int64]*memAccount),
		byHandle: make(map[string]int64),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- ports.DBTransactor ---

func (s *memStore) Begin(_ context.Context) (pgx.Tx, error) {
	return &memTx{
		store:  s,
		held:   make(map[int64]bool),
		deltas: make(map[int64]decimal.Decimal),
	}, nil
}

// --- ports.AccountRepository ---

func (s *memStore) Create(_ context.Context, handle, secretHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byHandle[handle]; taken {
		return 0, fmt.Errorf("insert account: %w", domain.ErrHandleTaken)
	}
	s.nextAccID++
	id := s.nextAccID
	s.accounts[id] = &memAccount{
		lock: make(chan struct{}, 1),
		acc: domain.Account{
			ID:         id,
			Handle:     handle,
			SecretHash: secretHash,
			Balance:    decimal.Zero,
			CreatedAt:  s.tick(),
		},
	}
	s.byHandle[handle] = id
	return id, nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	acc := a.acc
	return &acc, nil
}

func (s *memStore) GetByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	s.mu.Lock()
	id, ok := s.byHandle[handle]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return s.GetByID(ctx, id)
}

func (s *memStore) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Account, error) {
	mt := tx.(*memTx)
	if err := mt.acquire(ctx, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	acc := a.acc
	acc.Balance = acc.Balance.Add(mt.deltas[id])
	return &acc, nil
}

func (s *memStore) AddBalance(ctx context.Context, tx pgx.Tx, id int64, delta decimal.Decimal) error {
	mt := tx.(*memTx)
	if err := mt.acquire(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("account %d not found", id)
	}
	next := a.acc.Balance.Add(mt.deltas[id]).Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("update balance: %w", domain.ErrBalanceConstraint)
	}
	if next.GreaterThan(domain.MaxAmount) {
		return fmt.Errorf("update balance: %w", domain.ErrBalanceOverflow)
	}
	mt.deltas[id] = mt.deltas[id].Add(delta)
	return nil
}

// --- ports.MovementRepository ---

func (s *memStore) createMovement(tx pgx.Tx, mv *domain.Movement) error {
	mt := tx.(*memTx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMvID++
	mv.ID = s.nextMvID
	mv.CreatedAt = s.tick()
	mt.movements = append(mt.movements, *mv)
	return nil
}

func (s *memStore) ListByAccount(_ context.Context, accountID int64, limit, offset int) ([]domain.MovementView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var touching []domain.Movement
	for _, mv := range s.movements {
		if mv.Touches(accountID) {
			touching = append(touching, mv)
		}
	}
	sort.Slice(touching, func(i, j int) bool {
		if touching[i].CreatedAt.Equal(touching[j].CreatedAt) {
			return touching[i].ID > touching[j].ID
		}
		return touching[i].CreatedAt.After(touching[j].CreatedAt)
	})

	views := []domain.MovementView{}
	for i := offset; i < len(touching) && i < offset+limit; i++ {
		mv := touching[i]
		view := domain.MovementView{
			ID:        mv.ID,
			Amount:    mv.Amount,
			ToHandle:  s.accounts[mv.ToID].acc.Handle,
			CreatedAt: mv.CreatedAt,
		}
		if mv.FromID != nil {
			h := s.accounts[*mv.FromID].acc.Handle
			view.FromHandle = &h
		}
		views = append(views, view)
	}
	return views, nil
}

// movementRepo adapts memStore to ports.MovementRepository; the account
// and movement repositories both declare Create.
type movementRepo struct{ *memStore }

func (r movementRepo) Create(_ context.Context, tx pgx.Tx, mv *domain.Movement) error {
	return r.createMovement(tx, mv)
}

func (s *memStore) balance(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].acc.Balance
}

func (s *memStore) committedMovements() []domain.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Movement(nil), s.movements...)
}

// tick must be called with mu held.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Microsecond)
	return s.clock
}

// --- pgx.Tx ---

// acquire takes the row lock for id unless this transaction already holds it.
func (t *memTx) acquire(ctx context.Context, id int64) error {
	if t.held[id] {
		return nil
	}
	t.store.mu.Lock()
	a, ok := t.store.accounts[id]
	t.store.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case a.lock <- struct{}{}:
		t.held[id] = true
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *memTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.store.mu.Lock()
	for id, delta := range t.deltas {
		a := t.store.accounts[id]
		a.acc.Balance = a.acc.Balance.Add(delta)
	}
	t.store.movements = append(t.store.movements, t.movements...)
	t.store.mu.Unlock()

	t.release()
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.release()
	return nil
}

func (t *memTx) release() {
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id := range t.held {
		<-t.store.accounts[id].lock
	}
	t.held = nil
}
