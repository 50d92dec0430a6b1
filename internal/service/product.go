package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/inventory-sale/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/event"
	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/outbox"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/ptr"
)

type CreateCategoryParams struct {
	Name string
}

type CreateProductParams struct {
	Name          string
	Price         decimal.Decimal
	StockQuantity int
	CategoryID    uuid.UUID
}

type ProductService interface {
	CreateCategory(ctx context.Context, params CreateCategoryParams) (model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)

	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	SetStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error)
}

type productService struct {
	store repository.Store
}

func NewProductService(store repository.Store) ProductService {
	return &productService{store: store}
}

func (s *productService) CreateCategory(ctx context.Context, params CreateCategoryParams) (model.Category, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Category{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	category := model.Category{
		ID:        id,
		Name:      params.Name,
		CreatedAt: time.Now(),
	}

	if err := s.store.Categories().CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryExists) {
			return model.Category{}, apperr.CategoryExistsErr.WithDetail("name", params.Name)
		}
		return model.Category{}, fmt.Errorf("category repository create category: %w", err)
	}

	return category, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.store.Categories().ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("category repository list categories: %w", err)
	}

	return categories, nil
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if params.Price.IsNegative() {
		return model.Product{}, apperr.ValidationErr.WithMsg("price must not be negative")
	}
	if params.StockQuantity < 0 {
		return model.Product{}, apperr.InvalidQuantityErr.WithMsg("stock quantity must not be negative")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Product{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	product := model.Product{
		ID:            id,
		Name:          params.Name,
		Price:         params.Price,
		StockQuantity: params.StockQuantity,
		CategoryID:    params.CategoryID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	evBytes, err := json.Marshal(event.ProductCreatedEvent{
		ProductID:     product.ID.String(),
		Name:          product.Name,
		CategoryID:    product.CategoryID.String(),
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal event: %w", err)
	}

	if err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Categories().GetCategory(ctx, params.CategoryID); err != nil {
			return fmt.Errorf("category repository get category: %w", err)
		}

		if err := tx.Products().CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product repository create product: %w", err)
		}

		if err := tx.OutboxMsgs().CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
			Topic:        event.TopicProductCreated,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      evBytes,
			PartitionKey: ptr.New(product.ID.String()),
		}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return model.Product{}, apperr.CategoryNotFoundErr.WithDetail("category_id", params.CategoryID.String())
		}
		return model.Product{}, fmt.Errorf("store with tx: %w", err)
	}

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.Products().ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error) {
	product, err := s.store.Products().GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr.WithDetail("product_id", id.String())
		}
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *productService) SetStock(ctx context.Context, id uuid.UUID, quantity int) (model.Product, error) {
	if quantity < 0 {
		return model.Product{}, apperr.InvalidQuantityErr.WithMsg("stock quantity must not be negative")
	}

	product, err := s.store.Products().SetStock(ctx, id, quantity)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return model.Product{}, apperr.ProductNotFoundErr.WithDetail("product_id", id.String())
		}
		return model.Product{}, fmt.Errorf("product repository set stock: %w", err)
	}

	return product, nil
}
