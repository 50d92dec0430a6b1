package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
)

type CartLineRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CheckoutRequest struct {
	Lines []CartLineRequest `json:"lines"`
}

type QuickSaleRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100,alphanumspace"`
}

type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Price         decimal.Decimal `json:"price" validate:"nonnegdecimal"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0,lte=2147483647"`
	CategoryID    uuid.UUID       `json:"category_id" validate:"required"`
}

type SetStockRequest struct {
	StockQuantity *int `json:"stock_quantity" validate:"required,gte=0,lte=2147483647"`
}

type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ProductResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CategoryID    uuid.UUID `json:"category_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SoldItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPrice      string    `json:"unit_price"`
	Quantity       int       `json:"quantity"`
	Subtotal       string    `json:"subtotal"`
	RemainingStock *int      `json:"remaining_stock,omitempty"`
}

type SaleResponse struct {
	ID          uuid.UUID          `json:"id"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []SoldItemResponse `json:"items"`
	TotalAmount string             `json:"total_amount"`
}

type StockByCategoryResponse struct {
	StockByCategory map[string]int `json:"stock_by_category"`
}

type RevenueResponse struct {
	TotalRevenue string `json:"total_revenue"`
}

type SummaryResponse struct {
	StockByCategory map[string]int `json:"stock_by_category"`
	TotalRevenue    string         `json:"total_revenue"`
	SaleCount       int            `json:"sale_count"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func newCategoryResponse(c model.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}

func newProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         money(p.Price),
		StockQuantity: p.StockQuantity,
		CategoryID:    p.CategoryID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func newSaleResponse(s model.SaleRecord) SaleResponse {
	items := make([]SoldItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, SoldItemResponse{
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			UnitPrice:      money(item.UnitPrice),
			Quantity:       item.Quantity,
			Subtotal:       money(item.Subtotal),
			RemainingStock: item.RemainingStock,
		})
	}

	return SaleResponse{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		Items:       items,
		TotalAmount: money(s.TotalAmount),
	}
}

func newSummaryResponse(s service.ReportSummary) SummaryResponse {
	return SummaryResponse{
		StockByCategory: s.StockByCategory,
		TotalRevenue:    money(s.TotalRevenue),
		SaleCount:       s.SaleCount,
	}
}
