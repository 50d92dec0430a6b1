package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one requested line of a checkout. It is never persisted.
type CartLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// StockDecrement is the net quantity to take from one product.
type StockDecrement struct {
	ProductID uuid.UUID
	Quantity  int
}

// MaxQuantity bounds a line and the summed quantity per product of one sale. It
// matches the int4 stock column.
const MaxQuantity = math.MaxInt32

var ErrQuantityOutOfRange = errors.New("quantity out of range")

// CheckQuantities fails when a line, or the sum of the lines of one product, falls
// outside 1..MaxQuantity.
func CheckQuantities[T interface{ StockDecrement | CartLine }](lines []T) error {
	totals := make(map[uuid.UUID]int, len(lines))

	for i, line := range lines {
		d := StockDecrement(line)
		if d.Quantity <= 0 || d.Quantity > MaxQuantity {
			return fmt.Errorf("line %d: %w", i, ErrQuantityOutOfRange)
		}
		if d.Quantity > MaxQuantity-totals[d.ProductID] {
			return fmt.Errorf("product %s total: %w", d.ProductID, ErrQuantityOutOfRange)
		}
		totals[d.ProductID] += d.Quantity
	}

	return nil
}

// AggregateDecrements sums quantities per product, keeping first-seen order. Callers
// bound the lines with CheckQuantities first.
func AggregateDecrements[T interface{ StockDecrement | CartLine }](lines []T) []StockDecrement {
	index := make(map[uuid.UUID]int, len(lines))
	out := make([]StockDecrement, 0, len(lines))

	for _, line := range lines {
		d := StockDecrement(line)
		if i, ok := index[d.ProductID]; ok {
			out[i].Quantity += d.Quantity
			continue
		}
		index[d.ProductID] = len(out)
		out = append(out, d)
	}

	return out
}

type SoldItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`

	// RemainingStock is the product stock right after the sale committed. It is only
	// set on the record returned by a checkout.
	RemainingStock *int `json:"remaining_stock,omitempty"`
}

// NewSoldItem snapshots product's name and price for quantity units.
func NewSoldItem(product Product, quantity int) SoldItem {
	return SoldItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    quantity,
		Subtotal:    product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

type SaleRecord struct {
	ID          uuid.UUID       `json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []SoldItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

var (
	ErrSaleWithoutItems  = errors.New("sale has no items")
	ErrSaleTotalMismatch = errors.New("sale total does not match item subtotals")
	ErrSoldItemInvalid   = errors.New("sold item is invalid")
)

// NewSaleRecord builds a sale from already snapshotted items and computes its total.
func NewSaleRecord(id uuid.UUID, createdAt time.Time, items []SoldItem) (SaleRecord, error) {
	sale := SaleRecord{
		ID:          id,
		CreatedAt:   createdAt,
		Items:       slices.Clone(items),
		TotalAmount: SumSubtotals(items),
	}

	if err := sale.Validate(); err != nil {
		return SaleRecord{}, err
	}

	return sale, nil
}

// SumSubtotals adds up the subtotals of items.
func SumSubtotals(items []SoldItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// Validate checks the record's invariants: at least one item, every item consistent
// with its price and quantity, per-product quantities within MaxQuantity, and the
// total equal to the sum of subtotals.
func (s SaleRecord) Validate() error {
	if len(s.Items) == 0 {
		return ErrSaleWithoutItems
	}

	for i, item := range s.Items {
		if item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return fmt.Errorf("item %d: %w", i, ErrSoldItemInvalid)
		}
		if !item.Subtotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			return fmt.Errorf("item %d subtotal: %w", i, ErrSoldItemInvalid)
		}
	}

	if err := CheckQuantities(s.lines()); err != nil {
		return fmt.Errorf("%w: %w", ErrSoldItemInvalid, err)
	}

	if !s.TotalAmount.Equal(SumSubtotals(s.Items)) {
		return ErrSaleTotalMismatch
	}

	return nil
}

// Decrements returns the stock to take for this sale, one entry per product.
func (s SaleRecord) Decrements() []StockDecrement {
	return AggregateDecrements(s.lines())
}

func (s SaleRecord) lines() []StockDecrement {
	lines := make([]StockDecrement, 0, len(s.Items))
	for _, item := range s.Items {
		lines = append(lines, StockDecrement{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
