package event

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

const TopicProductCreated = "product.created"

type ProductCreatedEvent struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	CategoryID    string          `json:"category_id"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (s *Service) handleProductCreatedEvent(ctx context.Context, ev ProductCreatedEvent) error {
	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", ev.ProductID),
		slog.String("category_id", ev.CategoryID),
		slog.Int("stock_quantity", ev.StockQuantity),
	)
	return nil
}
