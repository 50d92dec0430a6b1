package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

const TopicSaleCompleted = "sale.completed"

type SaleCompletedItem struct {
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	RemainingStock int             `json:"remaining_stock"`
}

type SaleCompletedEvent struct {
	SaleID      string              `json:"sale_id"`
	CreatedAt   time.Time           `json:"created_at"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Items       []SaleCompletedItem `json:"items"`
}

func (s *Service) handleSaleCompletedEvent(ctx context.Context, ev SaleCompletedEvent) error {
	s.logger.InfoContext(ctx, "sale completed",
		slog.String("sale_id", ev.SaleID),
		slog.String("total_amount", ev.TotalAmount.StringFixed(2)),
		slog.Int("items", len(ev.Items)),
	)

	for _, item := range ev.Items {
		if item.RemainingStock == 0 {
			s.logger.WarnContext(ctx, "product sold out",
				slog.String("sale_id", ev.SaleID),
				slog.String("product_id", item.ProductID),
				slog.String("product_name", item.ProductName),
			)
		}
	}

	return nil
}
