package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/inventory-sale/internal/storage/mq"
)

// Service consumes the events written to the outbox by the sale and catalog services.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
}

func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
) *Service {
	return &Service{
		logger:     logger,
		mqConsumer: mqConsumer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.mqConsumer.RegisterHandler(TopicProductCreated, jsonHandler(s.handleProductCreatedEvent)); err != nil {
		return nil, fmt.Errorf("register product created event handler: %w", err)
	}

	if err := s.mqConsumer.RegisterHandler(TopicSaleCompleted, jsonHandler(s.handleSaleCompletedEvent)); err != nil {
		return nil, fmt.Errorf("register sale completed event handler: %w", err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	return CleanupFunc(mqCleanup), nil
}

// jsonHandler decodes the payload into T before calling handle.
func jsonHandler[T any](handle func(context.Context, T) error) mq.HandlerFunc {
	return func(ctx context.Context, topic string, payload []byte) error {
		var ev T
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("unmarshal %s event: %w", topic, err)
		}

		if err := handle(ctx, ev); err != nil {
			return fmt.Errorf("handle %s event: %w", topic, err)
		}

		return nil
	}
}
