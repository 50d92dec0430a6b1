package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryExists       = errors.New("category already exists")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrDuplicateSale        = errors.New("sale already recorded")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidStockQuantity = errors.New("invalid stock quantity")
)

// StockShortageError reports the product whose stock could not cover a decrement at
// write time. It matches ErrInsufficientStock with errors.Is.
type StockShortageError struct {
	ProductID uuid.UUID
	Available int
	Requested int
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockShortageError) Unwrap() error {
	return ErrInsufficientStock
}
