package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
)

type saleRepository struct {
	store *Store
}

func (r *saleRepository) AppendSale(ctx context.Context, sale model.SaleRecord) error {
	if err := sale.Validate(); err != nil {
		return fmt.Errorf("append sale: %w", err)
	}

	sale = cloneSale(sale)

	return r.store.write(ctx, func(st *state) (func(*state), error) {
		if _, ok := st.sales[sale.ID]; ok {
			return nil, repository.ErrDuplicateSale
		}

		st.sales[sale.ID] = sale
		st.saleOrder = append(st.saleOrder, sale.ID)

		return func(st *state) {
			delete(st.sales, sale.ID)
			if i := slices.Index(st.saleOrder, sale.ID); i >= 0 {
				st.saleOrder = slices.Delete(st.saleOrder, i, i+1)
			}
		}, nil
	})
}

func (r *saleRepository) GetSale(ctx context.Context, id uuid.UUID) (model.SaleRecord, error) {
	var sale model.SaleRecord
	err := r.store.read(ctx, func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return repository.ErrSaleNotFound
		}
		sale = cloneSale(s)
		return nil
	})

	return sale, err
}

func (r *saleRepository) ListSales(ctx context.Context, limit int) ([]model.SaleRecord, error) {
	var sales []model.SaleRecord
	err := r.store.read(ctx, func(st *state) error {
		sales = make([]model.SaleRecord, 0, min(limit, len(st.saleOrder)))
		for i := len(st.saleOrder) - 1; i >= 0 && len(sales) < limit; i-- {
			sales = append(sales, cloneSale(st.sales[st.saleOrder[i]]))
		}
		return nil
	})

	return sales, err
}

func (r *saleRepository) SumSaleTotals(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.store.read(ctx, func(st *state) error {
		for _, s := range st.sales {
			total = total.Add(s.TotalAmount)
		}
		return nil
	})

	return total, err
}

func (r *saleRepository) CountSales(ctx context.Context) (int, error) {
	var count int
	err := r.store.read(ctx, func(st *state) error {
		count = len(st.sales)
		return nil
	})

	return count, err
}

func cloneSale(s model.SaleRecord) model.SaleRecord {
	s.Items = slices.Clone(s.Items)
	for i := range s.Items {
		s.Items[i].RemainingStock = nil
	}
	return s
}
