package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
	apihttp "github.com/tuanvumaihuynh/inventory-sale/internal/http"
	"github.com/tuanvumaihuynh/inventory-sale/internal/log"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository/memory"
	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
)

type unhealthyChecker struct{}

func (unhealthyChecker) IsHealthy(context.Context) (bool, error) {
	return false, errors.New("connection refused")
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	store := memory.NewStore()
	logger := log.Discard()
	cfg := config.HTTP{Swagger: true, SaleRateLimit: 1000, SaleRateBurst: 1000}

	svc, err := apihttp.New(cfg, logger,
		service.NewProductService(store),
		service.NewSaleService(config.Sale{CommitTimeout: 5 * time.Second, MaxCartLines: 10}, logger, store),
		service.NewReportService(logger, store),
		nil, nil,
	)
	require.NoError(t, err)

	return testServer{t: t, handler: svc.Router()}
}

func (s testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s testServer) seedProduct(name, price string, stock int) apihttp.ProductResponse {
	s.t.Helper()

	rec := s.do(http.MethodPost, "/categories", map[string]any{"name": name + " group"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	category := decode[apihttp.CategoryResponse](s.t, rec)

	rec = s.do(http.MethodPost, "/products", map[string]any{
		"name":           name,
		"price":          price,
		"stock_quantity": stock,
		"category_id":    category.ID,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode[apihttp.ProductResponse](s.t, rec)
}

func TestCheckout(t *testing.T) {
	t.Run("Should create sale and decrement stock", func(t *testing.T) {
		s := newTestServer(t)
		apple := s.seedProduct("Apple", "2.50", 10)
		pear := s.seedProduct("Pear", "1.25", 5)

		rec := s.do(http.MethodPost, "/sales/checkout", map[string]any{
			"lines": []map[string]any{
				{"product_id": apple.ID, "quantity": 3},
				{"product_id": pear.ID, "quantity": 2},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		sale := decode[apihttp.SaleResponse](t, rec)
		assert.Equal(t, "10.00", sale.TotalAmount)
		require.Len(t, sale.Items, 2)
		assert.Equal(t, "7.50", sale.Items[0].Subtotal)
		require.NotNil(t, sale.Items[0].RemainingStock)
		assert.Equal(t, 7, *sale.Items[0].RemainingStock)

		rec = s.do(http.MethodGet, "/products/"+apple.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 7, decode[apihttp.ProductResponse](t, rec).StockQuantity)

		rec = s.do(http.MethodGet, "/sales/"+sale.ID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10.00", decode[apihttp.SaleResponse](t, rec).TotalAmount)
	})

	t.Run("Should reject insufficient stock with details", func(t *testing.T) {
		s := newTestServer(t)
		apple := s.seedProduct("Apple", "2.50", 2)

		rec := s.do(http.MethodPost, "/sales/checkout", map[string]any{
			"lines": []map[string]any{{"product_id": apple.ID, "quantity": 3}},
		})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

		body := decode[errorBody](t, rec)
		assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
		assert.Equal(t, apple.ID.String(), body.Details["product_id"])
		assert.EqualValues(t, 2, body.Details["available"])
		assert.EqualValues(t, 3, body.Details["requested"])

		rec = s.do(http.MethodGet, "/products/"+apple.ID.String(), nil)
		assert.Equal(t, 2, decode[apihttp.ProductResponse](t, rec).StockQuantity)
	})

	t.Run("Should reject quantities whose sum would wrap", func(t *testing.T) {
		s := newTestServer(t)
		apple := s.seedProduct("Apple", "2.50", 5)

		rec := s.do(http.MethodPost, "/sales/checkout", map[string]any{
			"lines": []map[string]any{
				{"product_id": apple.ID, "quantity": math.MaxInt},
				{"product_id": apple.ID, "quantity": math.MaxInt},
				{"product_id": apple.ID, "quantity": 3},
			},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Equal(t, "INVALID_QUANTITY", decode[errorBody](t, rec).Code)

		rec = s.do(http.MethodGet, "/products/"+apple.ID.String(), nil)
		assert.Equal(t, 5, decode[apihttp.ProductResponse](t, rec).StockQuantity)

		rec = s.do(http.MethodGet, "/sales", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]apihttp.SaleResponse](t, rec))
	})

	t.Run("Should reject empty cart", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/sales/checkout", map[string]any{"lines": []any{}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "EMPTY_CART", decode[errorBody](t, rec).Code)
	})

	t.Run("Should reject unknown fields", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/sales/checkout", map[string]any{"items": []any{}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decode[errorBody](t, rec).Code)
	})

	t.Run("Should reject missing body", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/sales/checkout", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decode[errorBody](t, rec).Code)
	})
}

func TestQuickSale(t *testing.T) {
	t.Run("Should sell a single product", func(t *testing.T) {
		s := newTestServer(t)
		apple := s.seedProduct("Apple", "2.50", 4)

		rec := s.do(http.MethodPost, "/sales/quick", map[string]any{"product_id": apple.ID, "quantity": 4})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, "10.00", decode[apihttp.SaleResponse](t, rec).TotalAmount)
	})

	t.Run("Should reject unknown product", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/sales/quick", map[string]any{"product_id": uuid.New(), "quantity": 1})
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "PRODUCT_NOT_FOUND", decode[errorBody](t, rec).Code)
	})

	t.Run("Should reject zero quantity", func(t *testing.T) {
		s := newTestServer(t)
		apple := s.seedProduct("Apple", "2.50", 4)

		rec := s.do(http.MethodPost, "/sales/quick", map[string]any{"product_id": apple.ID, "quantity": 0})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_QUANTITY", decode[errorBody](t, rec).Code)
	})
}

func TestListSales(t *testing.T) {
	s := newTestServer(t)
	apple := s.seedProduct("Apple", "1.00", 10)

	for range 3 {
		rec := s.do(http.MethodPost, "/sales/quick", map[string]any{"product_id": apple.ID, "quantity": 1})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("Should apply limit", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/sales?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]apihttp.SaleResponse](t, rec), 2)
	})

	t.Run("Should reject out of range limit", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/sales?limit=0", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decode[errorBody](t, rec).Code)
	})

	t.Run("Should reject malformed limit", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/sales?limit=abc", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject malformed sale id", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/sales/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should return not found for unknown sale", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/sales/"+uuid.NewString(), nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "SALE_NOT_FOUND", decode[errorBody](t, rec).Code)
	})
}

func TestCatalog(t *testing.T) {
	t.Run("Should reject invalid category name", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/categories", map[string]any{"name": ""})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decode[errorBody](t, rec).Code)
	})

	t.Run("Should reject duplicate category", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodPost, "/categories", map[string]any{"name": "Fruit"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = s.do(http.MethodPost, "/categories", map[string]any{"name": "Fruit"})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Should set stock", func(t *testing.T) {
		s := newTestServer(t)
		apple := s.seedProduct("Apple", "2.50", 4)

		rec := s.do(http.MethodPut, "/products/"+apple.ID.String()+"/stock", map[string]any{"stock_quantity": 42})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 42, decode[apihttp.ProductResponse](t, rec).StockQuantity)

		rec = s.do(http.MethodGet, "/products", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]apihttp.ProductResponse](t, rec), 1)
	})

	t.Run("Should reject negative stock", func(t *testing.T) {
		s := newTestServer(t)
		apple := s.seedProduct("Apple", "2.50", 4)

		rec := s.do(http.MethodPut, "/products/"+apple.ID.String()+"/stock", map[string]any{"stock_quantity": -1})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReports(t *testing.T) {
	s := newTestServer(t)
	apple := s.seedProduct("Apple", "2.50", 10)
	s.seedProduct("Pear", "1.00", 3)

	rec := s.do(http.MethodPost, "/sales/quick", map[string]any{"product_id": apple.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/reports/stock-by-category", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"Apple group": 8, "Pear group": 3},
		decode[apihttp.StockByCategoryResponse](t, rec).StockByCategory)

	rec = s.do(http.MethodGet, "/reports/revenue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5.00", decode[apihttp.RevenueResponse](t, rec).TotalRevenue)

	rec = s.do(http.MethodGet, "/reports/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[apihttp.SummaryResponse](t, rec)
	assert.Equal(t, 1, summary.SaleCount)
	assert.Equal(t, "5.00", summary.TotalRevenue)
}

func TestOperationalRoutes(t *testing.T) {
	t.Run("Should report healthy without checker", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", decode[apihttp.HealthResponse](t, rec).Status)
	})

	t.Run("Should report storage failure", func(t *testing.T) {
		store := memory.NewStore()
		logger := log.Discard()
		svc, err := apihttp.New(config.HTTP{SaleRateLimit: 1, SaleRateBurst: 1}, logger,
			service.NewProductService(store),
			service.NewSaleService(config.Sale{}, logger, store),
			service.NewReportService(logger, store),
			unhealthyChecker{}, nil,
		)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		svc.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "STORAGE_FAILURE", decode[errorBody](t, rec).Code)
	})

	t.Run("Should expose sale metrics", func(t *testing.T) {
		s := newTestServer(t)
		s.do(http.MethodPost, "/sales/checkout", map[string]any{"lines": []any{}})

		rec := s.do(http.MethodGet, "/metrics", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `inventory_sale_sale_outcomes_total{kind="checkout",outcome="empty_cart"} 1`)
		assert.Contains(t, rec.Body.String(), "inventory_sale_http_requests_total")
	})

	t.Run("Should serve api docs", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(http.MethodGet, "/docs/openapi.yml", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/sales/checkout")
	})
}
