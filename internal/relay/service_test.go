package relay_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
	"github.com/tuanvumaihuynh/inventory-sale/internal/relay"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository/memory"
	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/mq"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/ptr"
)

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Produce(ctx context.Context, msg mq.ProduceMsg) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func isTopic(topic string) any {
	return mock.MatchedBy(func(msg mq.ProduceMsg) bool { return msg.Topic == topic })
}

func TestRelayBatch(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Should publish messages and record failures", func(t *testing.T) {
		store := memory.NewStore()
		for _, topic := range []string{"sale.completed", "product.created"} {
			require.NoError(t, store.OutboxMsgs().CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        topic,
				Headers:      map[string]string{"X-Correlation-ID": "corr"},
				Payload:      []byte(`{}`),
				PartitionKey: ptr.New("key"),
			}))
		}

		pending, err := store.OutboxMsgs().ListUnprocessedOutboxMsgs(ctx, repository.ListUnprocessedOutboxMsgsParams{BatchSize: 10})
		require.NoError(t, err)
		require.Len(t, pending, 2)

		producer := &mockProducer{}
		producer.On("Produce", mock.Anything, isTopic("sale.completed")).Return(nil).Once()
		producer.On("Produce", mock.Anything, isTopic("product.created")).Return(errors.New("broker down")).Once()

		svc := relay.NewService(config.Relay{BatchSize: 10, Interval: time.Hour}, logger, store, producer)

		count, err := svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		producer.AssertExpectations(t)

		for _, msg := range pending {
			processed, msgErr := store.OutboxMsgError(msg.ID)
			assert.True(t, processed)
			if msg.Topic == "product.created" {
				require.NotNil(t, msgErr)
				assert.Contains(t, *msgErr, "broker down")
			} else {
				assert.Nil(t, msgErr)
			}
		}

		count, err = svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Should respect batch size", func(t *testing.T) {
		store := memory.NewStore()
		for range 3 {
			require.NoError(t, store.OutboxMsgs().CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:   "sale.completed",
				Payload: []byte(`{}`),
			}))
		}

		producer := &mockProducer{}
		producer.On("Produce", mock.Anything, mock.Anything).Return(nil)

		svc := relay.NewService(config.Relay{BatchSize: 2, Interval: time.Hour}, logger, store, producer)

		count, err := svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		count, err = svc.RelayBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		producer.AssertNumberOfCalls(t, "Produce", 3)
	})
}

func TestRunPublishesOnInterval(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	require.NoError(t, store.OutboxMsgs().CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:   "sale.completed",
		Payload: []byte(`{}`),
	}))

	published := make(chan struct{}, 1)
	producer := &mockProducer{}
	producer.On("Produce", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { published <- struct{}{} }).
		Return(nil).Once()

	svc := relay.NewService(config.Relay{BatchSize: 10, Interval: 10 * time.Millisecond}, logger, store, producer)
	cleanup := svc.Run(ctx)
	defer cleanup()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("outbox message was not published")
	}
}
