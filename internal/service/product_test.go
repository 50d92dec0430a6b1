package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/zerror"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)

	c.category(t, "Paint")

	_, err := c.products.CreateCategory(ctx, service.CreateCategoryParams{Name: "Paint"})
	require.Error(t, err)
	assert.True(t, zerror.HasCode(err, apperr.CategoryExistsCode))

	categories, err := c.products.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("Should write a product.created message with the product", func(t *testing.T) {
		c := newCatalog(t)
		paint := c.category(t, "Paint")

		product := c.product(t, paint, "Roller", "7.99", 12)

		got, err := c.products.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, got.StockQuantity)
		assert.True(t, decimal.RequireFromString("7.99").Equal(got.Price))

		msgs, err := c.store.OutboxMsgs().ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 10})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "product.created", msgs[0].Topic)
	})

	t.Run("Should reject unknown category and write nothing", func(t *testing.T) {
		c := newCatalog(t)

		_, err := c.products.CreateProduct(ctx, service.CreateProductParams{
			Name:       "Roller",
			Price:      decimal.NewFromInt(1),
			CategoryID: uuid.New(),
		})
		require.Error(t, err)
		assert.True(t, zerror.HasCode(err, apperr.CategoryNotFoundCode))

		products, err := c.products.ListAllProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, products)

		msgs, err := c.store.OutboxMsgs().ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 10})
		require.NoError(t, err)
		assert.Empty(t, msgs)
	})

	t.Run("Should reject negative price", func(t *testing.T) {
		c := newCatalog(t)
		paint := c.category(t, "Paint")

		_, err := c.products.CreateProduct(ctx, service.CreateProductParams{
			Name:       "Roller",
			Price:      decimal.RequireFromString("-1"),
			CategoryID: paint.ID,
		})
		assert.True(t, zerror.HasCode(err, apperr.ValidationErrorCode))
	})
}

func TestSetStock(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	paint := c.category(t, "Paint")
	product := c.product(t, paint, "Roller", "7.99", 0)

	updated, err := c.products.SetStock(ctx, product.ID, 40)
	require.NoError(t, err)
	assert.Equal(t, 40, updated.StockQuantity)

	_, err = c.products.SetStock(ctx, product.ID, -1)
	assert.True(t, zerror.HasCode(err, apperr.InvalidQuantityCode))

	_, err = c.products.SetStock(ctx, uuid.New(), 1)
	assert.True(t, zerror.HasCode(err, apperr.ProductNotFoundCode))
}
