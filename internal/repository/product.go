package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
)

// ProductRepository is the inventory store. Every stock write is a conditional,
// single-statement update; none of them read the stock first and write it back.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product model.Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)

	// DecrementStock takes quantity units from one product if it has them.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error)
	// BatchDecrementStock applies every decrement or none. Decrements for the same
	// product are summed before the availability check. It returns the remaining
	// stock per product.
	BatchDecrementStock(ctx context.Context, decrements []model.StockDecrement) (map[uuid.UUID]int, error)
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	SetStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error)

	// SumStockByCategory returns total stock per category id. Categories without
	// products are absent.
	SumStockByCategory(ctx context.Context) (map[uuid.UUID]int, error)
}

type productRepository struct {
	db db.DB
}

func NewProductRepository(db db.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, price, stock_quantity, category_id, created_at, updated_at`

func (r productRepository) CreateProduct(ctx context.Context, product model.Product) error {
	quantity, err := toInt32(product.StockQuantity)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, price, stock_quantity, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, product.ID, product.Name, decimalToNumeric(product.Price), quantity, product.CategoryID,
		product.CreatedAt, product.UpdatedAt,
	); err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("create product: %w", ErrCategoryNotFound)
		}
		return fmt.Errorf("create product: %w", err)
	}

	return nil
}

func (r productRepository) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (r productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list all products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("collect products: %w", err)
	}

	return products, nil
}

func (r productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error) {
	qty, err := toPositiveInt32(quantity)
	if err != nil {
		return model.Product{}, err
	}

	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2,
			updated_at     = $3
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING `+productColumns,
		id, qty, time.Now(),
	)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, r.shortage(ctx, id, quantity)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("decrement stock: %w", err)
	}

	return product, nil
}

// shortage explains why a conditional decrement matched no row.
func (r productRepository) shortage(ctx context.Context, id uuid.UUID, requested int) error {
	var available int32
	err := r.db.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, id).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("read stock after failed decrement: %w", err)
	}

	return &StockShortageError{ProductID: id, Available: int(available), Requested: requested}
}

func (r productRepository) BatchDecrementStock(ctx context.Context, decrements []model.StockDecrement) (map[uuid.UUID]int, error) {
	if err := model.CheckQuantities(decrements); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStockQuantity, err)
	}
	merged := model.AggregateDecrements(decrements)
	if len(merged) == 0 {
		return map[uuid.UUID]int{}, nil
	}

	if len(merged) == 1 {
		product, err := r.DecrementStock(ctx, merged[0].ProductID, merged[0].Quantity)
		if err != nil {
			return nil, err
		}
		return map[uuid.UUID]int{product.ID: product.StockQuantity}, nil
	}

	ids := make([]uuid.UUID, 0, len(merged))
	quantities := make([]int32, 0, len(merged))
	for _, d := range merged {
		qty, err := toPositiveInt32(d.Quantity)
		if err != nil {
			return nil, err
		}
		ids = append(ids, d.ProductID)
		quantities = append(quantities, qty)
	}

	remaining := make(map[uuid.UUID]int, len(merged))
	err := r.db.WithTx(ctx, func(tx db.DB) error {
		// Lock in id order so concurrent batches cannot deadlock each other.
		rows, err := tx.Query(ctx, `
			SELECT id, stock_quantity
			FROM products
			WHERE id = ANY(@ids::uuid[])
			ORDER BY id
			FOR UPDATE
		`, pgx.NamedArgs{"ids": ids})
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		locked := make(map[uuid.UUID]int, len(ids))
		var (
			id    uuid.UUID
			stock int32
		)
		if _, err := pgx.ForEachRow(rows, []any{&id, &stock}, func() error {
			locked[id] = int(stock)
			return nil
		}); err != nil {
			return fmt.Errorf("scan locked products: %w", err)
		}

		for _, d := range merged {
			available, ok := locked[d.ProductID]
			if !ok {
				return fmt.Errorf("product %s: %w", d.ProductID, ErrProductNotFound)
			}
			if available < d.Quantity {
				return &StockShortageError{ProductID: d.ProductID, Available: available, Requested: d.Quantity}
			}
		}

		rows, err = tx.Query(ctx, `
			UPDATE products AS p
			SET stock_quantity = p.stock_quantity - d.quantity,
				updated_at     = @now
			FROM (
				SELECT UNNEST(@ids::uuid[])       AS id,
					   UNNEST(@quantities::int[]) AS quantity
			) AS d
			WHERE p.id = d.id AND p.stock_quantity >= d.quantity
			RETURNING p.id, p.stock_quantity
		`, pgx.NamedArgs{
			"ids":        ids,
			"quantities": quantities,
			"now":        time.Now(),
		})
		if err != nil {
			return fmt.Errorf("batch decrement: %w", err)
		}

		if _, err := pgx.ForEachRow(rows, []any{&id, &stock}, func() error {
			remaining[id] = int(stock)
			return nil
		}); err != nil {
			return fmt.Errorf("scan decremented products: %w", err)
		}

		if len(remaining) != len(merged) {
			return fmt.Errorf("batch decrement updated %d of %d products: %w",
				len(remaining), len(merged), ErrInsufficientStock)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return remaining, nil
}

func (r productRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	qty, err := toPositiveInt32(quantity)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2,
			updated_at     = $3
		WHERE id = $1
	`, id, qty, time.Now())
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r productRepository) SetStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error) {
	if quantity < 0 {
		return model.Product{}, ErrInvalidStockQuantity
	}
	qty, err := toInt32(quantity)
	if err != nil {
		return model.Product{}, err
	}

	row := r.db.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = $2,
			updated_at     = $3
		WHERE id = $1
		RETURNING `+productColumns,
		id, qty, time.Now(),
	)

	product, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("set stock: %w", err)
	}

	return product, nil
}

func (r productRepository) SumStockByCategory(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category_id, SUM(stock_quantity)::bigint
		FROM products
		GROUP BY category_id
	`)
	if err != nil {
		return nil, fmt.Errorf("sum stock by category: %w", err)
	}

	totals := map[uuid.UUID]int{}
	var (
		categoryID uuid.UUID
		total      int64
	)
	if _, err := pgx.ForEachRow(rows, []any{&categoryID, &total}, func() error {
		totals[categoryID] = int(total)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan stock by category: %w", err)
	}

	return totals, nil
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var (
		p     model.Product
		price pgtype.Numeric
		stock int32
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Product{}, err
	}

	d, err := numericToDecimal(price)
	if err != nil {
		return model.Product{}, fmt.Errorf("convert price: %w", err)
	}
	p.Price = d
	p.StockQuantity = int(stock)

	return p, nil
}

func toInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("quantity out of range: %d: %w", v, ErrInvalidStockQuantity)
	}
	return int32(v), nil
}

func toPositiveInt32(v int) (int32, error) {
	if v <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d: %w", v, ErrInvalidStockQuantity)
	}
	return toInt32(v)
}
