package event_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/internal/event"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/mq"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
	running  bool
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	if c.handlers == nil {
		c.handlers = map[string]mq.HandlerFunc{}
	}
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	c.running = true
	return func() { c.running = false }, nil
}

func TestService(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	consumer := &fakeConsumer{}

	cleanup, err := event.New(logger, consumer).Run(ctx)
	require.NoError(t, err)
	assert.True(t, consumer.running)
	require.Contains(t, consumer.handlers, event.TopicSaleCompleted)
	require.Contains(t, consumer.handlers, event.TopicProductCreated)

	t.Run("Should warn when a product sold out", func(t *testing.T) {
		buf.Reset()
		payload := []byte(`{
			"sale_id": "s-1",
			"total_amount": "5.00",
			"items": [
				{"product_id": "p-1", "product_name": "Apple", "quantity": 2, "remaining_stock": 0},
				{"product_id": "p-2", "product_name": "Pear", "quantity": 1, "remaining_stock": 4}
			]
		}`)

		require.NoError(t, consumer.handlers[event.TopicSaleCompleted](ctx, event.TopicSaleCompleted, payload))
		assert.Contains(t, buf.String(), `"msg":"sale completed"`)
		assert.Contains(t, buf.String(), `"msg":"product sold out"`)
		assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("product sold out")))
	})

	t.Run("Should reject malformed payload", func(t *testing.T) {
		err := consumer.handlers[event.TopicProductCreated](ctx, event.TopicProductCreated, []byte(`{`))
		assert.ErrorContains(t, err, "unmarshal product.created event")
	})

	cleanup()
	assert.False(t, consumer.running)
}
