package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/validator"
)

type productHandler struct {
	productSvc service.ProductService
	validator  validator.Validator
}

func newProductHandler(productSvc service.ProductService, v validator.Validator) *productHandler {
	return &productHandler{
		productSvc: productSvc,
		validator:  v,
	}
}

func (h *productHandler) ListCategories(w http.ResponseWriter, r *http.Request) error {
	categories, err := h.productSvc.ListCategories(r.Context())
	if err != nil {
		return fmt.Errorf("product service list categories: %w", err)
	}

	items := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		items = append(items, newCategoryResponse(c))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *productHandler) CreateCategory(w http.ResponseWriter, r *http.Request) error {
	var req CreateCategoryRequest
	if err := decodeBody(h.validator, w, r, &req); err != nil {
		return err
	}

	category, err := h.productSvc.CreateCategory(r.Context(), service.CreateCategoryParams{Name: req.Name})
	if err != nil {
		return fmt.Errorf("product service create category: %w", err)
	}

	return writeJSON(w, http.StatusCreated, newCategoryResponse(category))
}

func (h *productHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	products, err := h.productSvc.ListAllProducts(r.Context())
	if err != nil {
		return fmt.Errorf("product service list all products: %w", err)
	}

	items := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		items = append(items, newProductResponse(product))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *productHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	var req CreateProductRequest
	if err := decodeBody(h.validator, w, r, &req); err != nil {
		return err
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
	})
	if err != nil {
		return fmt.Errorf("product service create product: %w", err)
	}

	return writeJSON(w, http.StatusCreated, newProductResponse(product))
}

func (h *productHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "productId")
	if err != nil {
		return err
	}

	product, err := h.productSvc.GetProduct(r.Context(), id)
	if err != nil {
		return fmt.Errorf("product service get product: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}

func (h *productHandler) SetStock(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "productId")
	if err != nil {
		return err
	}

	var req SetStockRequest
	if err := decodeBody(h.validator, w, r, &req); err != nil {
		return err
	}

	product, err := h.productSvc.SetStock(r.Context(), id, *req.StockQuantity)
	if err != nil {
		return fmt.Errorf("product service set stock: %w", err)
	}

	return writeJSON(w, http.StatusOK, newProductResponse(product))
}
