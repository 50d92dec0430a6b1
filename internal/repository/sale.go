package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
)

// SaleRepository is the append-only sales ledger.
type SaleRepository interface {
	// AppendSale stores the sale and its items. A second append with the same id
	// returns ErrDuplicateSale and leaves the first record untouched.
	AppendSale(ctx context.Context, sale model.SaleRecord) error
	GetSale(ctx context.Context, id uuid.UUID) (model.SaleRecord, error)
	// ListSales returns up to limit sales, newest first.
	ListSales(ctx context.Context, limit int) ([]model.SaleRecord, error)
	SumSaleTotals(ctx context.Context) (decimal.Decimal, error)
	CountSales(ctx context.Context) (int, error)
}

type saleRepository struct {
	db db.DB
}

func NewSaleRepository(db db.DB) SaleRepository {
	return &saleRepository{db: db}
}

var saleItemColumns = []string{"sale_id", "line_no", "product_id", "product_name", "unit_price", "quantity", "subtotal"}

func (r saleRepository) AppendSale(ctx context.Context, sale model.SaleRecord) error {
	if err := sale.Validate(); err != nil {
		return fmt.Errorf("append sale: %w", err)
	}

	return r.db.WithTx(ctx, func(tx db.DB) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sales (id, total_amount, created_at)
			VALUES ($1, $2, $3)
		`, sale.ID, decimalToNumeric(sale.TotalAmount), sale.CreatedAt); err != nil {
			if db.IsUniqueViolation(err) {
				return ErrDuplicateSale
			}
			return fmt.Errorf("insert sale: %w", err)
		}

		rows := make([][]any, 0, len(sale.Items))
		for i, item := range sale.Items {
			quantity, err := toPositiveInt32(item.Quantity)
			if err != nil {
				return err
			}
			rows = append(rows, []any{
				sale.ID,
				int32(i),
				item.ProductID,
				item.ProductName,
				decimalToNumeric(item.UnitPrice),
				quantity,
				decimalToNumeric(item.Subtotal),
			})
		}

		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"sale_items"}, saleItemColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy sale items: %w", err)
		}

		return nil
	})
}

func (r saleRepository) GetSale(ctx context.Context, id uuid.UUID) (model.SaleRecord, error) {
	var (
		sale  model.SaleRecord
		total pgtype.Numeric
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, total_amount, created_at FROM sales WHERE id = $1
	`, id).Scan(&sale.ID, &total, &sale.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SaleRecord{}, ErrSaleNotFound
	}
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("get sale: %w", err)
	}

	if sale.TotalAmount, err = numericToDecimal(total); err != nil {
		return model.SaleRecord{}, fmt.Errorf("convert sale total: %w", err)
	}

	items, err := r.listItems(ctx, []uuid.UUID{id})
	if err != nil {
		return model.SaleRecord{}, err
	}
	sale.Items = items[id]

	return sale, nil
}

func (r saleRepository) ListSales(ctx context.Context, limit int) ([]model.SaleRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, total_amount, created_at
		FROM sales
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	sales, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SaleRecord, error) {
		var (
			s     model.SaleRecord
			total pgtype.Numeric
		)
		if err := row.Scan(&s.ID, &total, &s.CreatedAt); err != nil {
			return model.SaleRecord{}, err
		}
		d, err := numericToDecimal(total)
		if err != nil {
			return model.SaleRecord{}, err
		}
		s.TotalAmount = d
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect sales: %w", err)
	}
	if len(sales) == 0 {
		return sales, nil
	}

	ids := make([]uuid.UUID, 0, len(sales))
	for _, s := range sales {
		ids = append(ids, s.ID)
	}

	items, err := r.listItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = items[sales[i].ID]
	}

	return sales, nil
}

func (r saleRepository) listItems(ctx context.Context, saleIDs []uuid.UUID) (map[uuid.UUID][]model.SoldItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT sale_id, product_id, product_name, unit_price, quantity, subtotal
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY sale_id, line_no
	`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}

	items := make(map[uuid.UUID][]model.SoldItem, len(saleIDs))
	var (
		saleID    uuid.UUID
		item      model.SoldItem
		unitPrice pgtype.Numeric
		quantity  int32
		subtotal  pgtype.Numeric
	)
	if _, err := pgx.ForEachRow(rows, []any{&saleID, &item.ProductID, &item.ProductName, &unitPrice, &quantity, &subtotal}, func() error {
		var err error
		if item.UnitPrice, err = numericToDecimal(unitPrice); err != nil {
			return err
		}
		if item.Subtotal, err = numericToDecimal(subtotal); err != nil {
			return err
		}
		item.Quantity = int(quantity)
		items[saleID] = append(items[saleID], item)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan sale items: %w", err)
	}

	return items, nil
}

func (r saleRepository) SumSaleTotals(ctx context.Context) (decimal.Decimal, error) {
	var total pgtype.Numeric
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM sales`).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum sale totals: %w", err)
	}

	return numericToDecimal(total)
}

func (r saleRepository) CountSales(ctx context.Context) (int, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sales: %w", err)
	}

	return int(count), nil
}
