package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
)

type productRepository struct {
	store *Store
}

func (r *productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	if product.StockQuantity < 0 {
		return repository.ErrInvalidStockQuantity
	}

	return r.store.write(ctx, func(st *state) (func(*state), error) {
		if _, ok := st.categories[product.CategoryID]; !ok {
			return nil, fmt.Errorf("create product: %w", repository.ErrCategoryNotFound)
		}
		if _, ok := st.products[product.ID]; ok {
			return nil, fmt.Errorf("create product: product %s already exists", product.ID)
		}

		st.products[product.ID] = product

		return func(st *state) { delete(st.products, product.ID) }, nil
	})
}

func (r *productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	var product model.Product
	err := r.store.read(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return repository.ErrProductNotFound
		}
		product = p
		return nil
	})

	return product, err
}

func (r *productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.store.read(ctx, func(st *state) error {
		products = make([]model.Product, 0, len(st.products))
		for _, p := range st.products {
			products = append(products, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(products, func(a, b model.Product) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})

	return products, nil
}

func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error) {
	remaining, err := r.BatchDecrementStock(ctx, []model.StockDecrement{{ProductID: id, Quantity: quantity}})
	if err != nil {
		return model.Product{}, err
	}

	product, err := r.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	product.StockQuantity = remaining[id]

	return product, nil
}

func (r *productRepository) BatchDecrementStock(ctx context.Context, decrements []model.StockDecrement) (map[uuid.UUID]int, error) {
	if err := model.CheckQuantities(decrements); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidStockQuantity, err)
	}
	merged := model.AggregateDecrements(decrements)

	remaining := make(map[uuid.UUID]int, len(merged))
	err := r.store.write(ctx, func(st *state) (func(*state), error) {
		for _, d := range merged {
			p, ok := st.products[d.ProductID]
			if !ok {
				return nil, fmt.Errorf("product %s: %w", d.ProductID, repository.ErrProductNotFound)
			}
			if p.StockQuantity < d.Quantity {
				return nil, &repository.StockShortageError{
					ProductID: d.ProductID,
					Available: p.StockQuantity,
					Requested: d.Quantity,
				}
			}
		}

		now := time.Now()
		for _, d := range merged {
			p := st.products[d.ProductID]
			p.StockQuantity -= d.Quantity
			p.UpdatedAt = now
			st.products[d.ProductID] = p
			remaining[d.ProductID] = p.StockQuantity
		}

		return func(st *state) { restock(st, merged) }, nil
	})
	if err != nil {
		return nil, err
	}

	return remaining, nil
}

func restock(st *state, decrements []model.StockDecrement) {
	for _, d := range decrements {
		if p, ok := st.products[d.ProductID]; ok {
			p.StockQuantity += d.Quantity
			st.products[d.ProductID] = p
		}
	}
}

func (r *productRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d: %w", quantity, repository.ErrInvalidStockQuantity)
	}

	return r.store.write(ctx, func(st *state) (func(*state), error) {
		p, ok := st.products[id]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		p.StockQuantity += quantity
		p.UpdatedAt = time.Now()
		st.products[id] = p

		return func(st *state) {
			if p, ok := st.products[id]; ok && p.StockQuantity >= quantity {
				p.StockQuantity -= quantity
				st.products[id] = p
			}
		}, nil
	})
}

func (r *productRepository) SetStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error) {
	if quantity < 0 {
		return model.Product{}, repository.ErrInvalidStockQuantity
	}

	var product model.Product
	err := r.store.write(ctx, func(st *state) (func(*state), error) {
		p, ok := st.products[id]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		previous := p.StockQuantity
		p.StockQuantity = quantity
		p.UpdatedAt = time.Now()
		st.products[id] = p
		product = p

		return func(st *state) {
			if p, ok := st.products[id]; ok {
				p.StockQuantity = previous
				st.products[id] = p
			}
		}, nil
	})

	return product, err
}

func (r *productRepository) SumStockByCategory(ctx context.Context) (map[uuid.UUID]int, error) {
	totals := map[uuid.UUID]int{}
	err := r.store.read(ctx, func(st *state) error {
		for _, p := range st.products {
			totals[p.CategoryID] += p.StockQuantity
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return totals, nil
}
