package repository_test

import (
	"context"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
	"github.com/tuanvumaihuynh/inventory-sale/internal/log"
	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/db"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/zerror"
)

// newTestStore connects to POSTGRES_TEST_URL, migrates and empties the schema.
func newTestStore(t *testing.T) repository.Store {
	t.Helper()

	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Skipf("Postgres not available: %v", err)
	}

	_, err = db.Migrate(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE sale_items, sales, products, categories, outbox_messages`)
	require.NoError(t, err)

	return repository.NewStore(db.NewClient(pool))
}

func seedProducts(t *testing.T, store repository.Store, stock ...int) []model.Product {
	t.Helper()
	ctx := context.Background()

	category := model.Category{ID: uuid.New(), Name: "Category " + uuid.NewString(), CreatedAt: time.Now()}
	require.NoError(t, store.Categories().CreateCategory(ctx, category))

	products := make([]model.Product, 0, len(stock))
	for i, qty := range stock {
		p := model.Product{
			ID:            uuid.New(),
			Name:          "Product " + string(rune('A'+i)),
			Price:         decimal.RequireFromString("3.25"),
			StockQuantity: qty,
			CategoryID:    category.ID,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		require.NoError(t, store.Products().CreateProduct(ctx, p))
		products = append(products, p)
	}

	return products
}

func TestPostgresBatchDecrementStock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	products := seedProducts(t, store, 5, 2)

	t.Run("Should decrement all products", func(t *testing.T) {
		remaining, err := store.Products().BatchDecrementStock(ctx, []model.StockDecrement{
			{ProductID: products[0].ID, Quantity: 1},
			{ProductID: products[1].ID, Quantity: 1},
			{ProductID: products[0].ID, Quantity: 1},
		})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int{products[0].ID: 3, products[1].ID: 1}, remaining)
	})

	t.Run("Should leave stock untouched on shortage", func(t *testing.T) {
		_, err := store.Products().BatchDecrementStock(ctx, []model.StockDecrement{
			{ProductID: products[0].ID, Quantity: 1},
			{ProductID: products[1].ID, Quantity: 2},
		})

		var shortage *repository.StockShortageError
		require.ErrorAs(t, err, &shortage)
		assert.Equal(t, products[1].ID, shortage.ProductID)

		p, err := store.Products().GetProduct(ctx, products[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 3, p.StockQuantity)
	})

	t.Run("Should report unknown product", func(t *testing.T) {
		_, err := store.Products().DecrementStock(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, repository.ErrProductNotFound)
	})
}

func TestPostgresCommitSaleStockConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	products := seedProducts(t, store, 10, 4)
	svc := service.NewSaleService(config.Sale{
		CommitTimeout: 5 * time.Second,
		LookupTimeout: time.Second,
	}, log.Discard(), store)

	sale, err := model.NewSaleRecord(uuid.New(), time.Now().UTC(), []model.SoldItem{
		model.NewSoldItem(products[0], 1),
		model.NewSoldItem(products[1], 5),
	})
	require.NoError(t, err)

	_, err = svc.CommitSale(ctx, sale)
	require.Error(t, err)
	assert.True(t, zerror.HasCode(err, apperr.StockConflictCode))

	var zErr zerror.ZError
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, products[1].ID.String(), zErr.Details()["product_id"])
	assert.Equal(t, 4, zErr.Details()["available"])
	assert.Equal(t, 5, zErr.Details()["requested"])

	count, err := store.Sales().CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = store.Sales().GetSale(ctx, sale.ID)
	assert.ErrorIs(t, err, repository.ErrSaleNotFound)

	for i, want := range []int{10, 4} {
		p, err := store.Products().GetProduct(ctx, products[i].ID)
		require.NoError(t, err)
		assert.Equal(t, want, p.StockQuantity)
	}
}

func TestPostgresBatchDecrementQuantityBound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProducts(t, store, 5)[0]

	_, err := store.Products().BatchDecrementStock(ctx, []model.StockDecrement{
		{ProductID: product.ID, Quantity: math.MaxInt},
		{ProductID: product.ID, Quantity: math.MaxInt},
		{ProductID: product.ID, Quantity: 3},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidStockQuantity)

	p, err := store.Products().GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.StockQuantity)
}

func TestPostgresConcurrentDecrement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := seedProducts(t, store, 10)[0]

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 30 {
		wg.Go(func() {
			_, err := store.Products().DecrementStock(ctx, product.ID, 1)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 10, successes)

	p, err := store.Products().GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestPostgresSales(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	products := seedProducts(t, store, 10, 10)

	sale, err := model.NewSaleRecord(uuid.New(), time.Now().UTC().Truncate(time.Microsecond), []model.SoldItem{
		model.NewSoldItem(products[0], 2),
		model.NewSoldItem(products[1], 1),
	})
	require.NoError(t, err)

	require.NoError(t, store.Sales().AppendSale(ctx, sale))
	assert.ErrorIs(t, store.Sales().AppendSale(ctx, sale), repository.ErrDuplicateSale)

	got, err := store.Sales().GetSale(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, products[0].ID, got.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("9.75").Equal(got.TotalAmount))

	total, err := store.Sales().SumSaleTotals(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9.75").Equal(total))

	count, err := store.Sales().CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = store.Sales().GetSale(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrSaleNotFound)
}

func TestPostgresOutboxMsgs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := "k1"
	require.NoError(t, store.OutboxMsgs().CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        "sale.completed",
		Headers:      map[string]string{"traceparent": "00-abc"},
		Payload:      []byte(`{"id":"1"}`),
		PartitionKey: &key,
	}))

	err := store.WithTx(ctx, func(tx repository.Store) error {
		msgs, err := tx.OutboxMsgs().ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 10})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "00-abc", msgs[0].Headers["traceparent"])

		return tx.OutboxMsgs().BulkUpdateOutboxMsgs(ctx, repository.BulkUpdateOutboxMsgsParams{
			Items: []repository.BulkUpdateOutboxMsgsItem{{ID: msgs[0].ID}},
		})
	})
	require.NoError(t, err)

	msgs, err := store.OutboxMsgs().ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 10})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPostgresSumStockByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	products := seedProducts(t, store, 5, 3)

	totals, err := store.Products().SumStockByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{products[0].CategoryID: 8}, totals)
}
