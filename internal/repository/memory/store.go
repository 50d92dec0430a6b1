// Package memory is an in-process implementation of repository.Store.
//
// It has no native transactions. Each write inside WithTx registers its inverse in
// an undo log, and a failed unit of work replays the log in reverse. Writes are
// visible to other callers before the unit commits, but a conditional decrement
// never drives stock negative and an undone decrement only adds units back.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type outboxEntry struct {
	msg       repository.OutboxMsg
	processed bool
	err       *string
}

type state struct {
	mu sync.Mutex

	categories map[uuid.UUID]model.Category
	products   map[uuid.UUID]model.Product
	sales      map[uuid.UUID]model.SaleRecord
	saleOrder  []uuid.UUID
	outbox     []outboxEntry
}

type undoLog struct {
	mu  sync.Mutex
	ops []func(*state)
}

func (l *undoLog) push(op func(*state)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *undoLog) drain() []func(*state) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ops := l.ops
	l.ops = nil
	slices.Reverse(ops)
	return ops
}

type Store struct {
	st   *state
	undo *undoLog
}

func NewStore() *Store {
	return &Store{
		st: &state{
			categories: map[uuid.UUID]model.Category{},
			products:   map[uuid.UUID]model.Product{},
			sales:      map[uuid.UUID]model.SaleRecord{},
		},
	}
}

func (s *Store) Products() repository.ProductRepository {
	return &productRepository{store: s}
}

func (s *Store) Categories() repository.CategoryRepository {
	return &categoryRepository{store: s}
}

func (s *Store) Sales() repository.SaleRepository {
	return &saleRepository{store: s}
}

func (s *Store) OutboxMsgs() repository.OutboxMsgRepository {
	return &outboxMsgRepository{store: s}
}

// WithTx runs txFunc against a Store that records undo operations. Nested calls
// join the outer unit of work.
func (s *Store) WithTx(ctx context.Context, txFunc func(repository.Store) error) error {
	if s.undo != nil {
		return txFunc(s)
	}

	tx := &Store{st: s.st, undo: &undoLog{}}
	if err := txFunc(tx); err != nil {
		tx.rollback()
		return err
	}

	return nil
}

func (s *Store) rollback() {
	ops := s.undo.drain()

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, op := range ops {
		op(s.st)
	}
}

// write runs fn under the state lock. A non-nil undo returned by fn is recorded
// when running inside WithTx.
func (s *Store) write(ctx context.Context, fn func(*state) (func(*state), error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.mu.Lock()
	undo, err := fn(s.st)
	s.st.mu.Unlock()
	if err != nil {
		return err
	}

	if undo != nil && s.undo != nil {
		s.undo.push(undo)
	}

	return nil
}

func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return fn(s.st)
}
