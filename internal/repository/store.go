package repository

import (
	"context"

	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
)

// Store hands out repositories bound to one storage handle. Writes made through the
// Store passed to WithTx's function become visible together or not at all.
type Store interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Sales() SaleRepository
	OutboxMsgs() OutboxMsgRepository

	WithTx(ctx context.Context, txFunc func(Store) error) error
}

var _ Store = (*pgStore)(nil)

type pgStore struct {
	db db.DB
}

// NewStore creates a Store backed by Postgres. Atomicity comes from native transactions.
func NewStore(db db.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) Products() ProductRepository {
	return NewProductRepository(s.db)
}

func (s *pgStore) Categories() CategoryRepository {
	return NewCategoryRepository(s.db)
}

func (s *pgStore) Sales() SaleRepository {
	return NewSaleRepository(s.db)
}

func (s *pgStore) OutboxMsgs() OutboxMsgRepository {
	return NewOutboxMsgRepository(s.db)
}

func (s *pgStore) WithTx(ctx context.Context, txFunc func(Store) error) error {
	return s.db.WithTx(ctx, func(tx db.DB) error {
		return txFunc(&pgStore{db: tx})
	})
}
