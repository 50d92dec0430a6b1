package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/inventory-sale/internal/apperr"
	"github.com/tuanvumaihuynh/inventory-sale/internal/config"
	"github.com/tuanvumaihuynh/inventory-sale/internal/event"
	"github.com/tuanvumaihuynh/inventory-sale/internal/log"
	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/outbox"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/ptr"
)

var tracer = otel.Tracer("internal/service")

const defaultLookupTimeout = 2 * time.Second

type SaleService interface {
	// ProcessCartCheckout sells every line of the cart or nothing. It returns the
	// committed record with the remaining stock of each sold product.
	ProcessCartCheckout(ctx context.Context, lines []model.CartLine) (model.SaleRecord, error)
	// ProcessQuickSale is a checkout of a single line.
	ProcessQuickSale(ctx context.Context, productID uuid.UUID, quantity int) (model.SaleRecord, error)
	// CommitSale applies an already built sale: ledger append, stock decrement and
	// sale.completed message in one atomic unit. Committing the same record twice
	// fails with DUPLICATE_SALE and leaves stock untouched.
	CommitSale(ctx context.Context, sale model.SaleRecord) (model.SaleRecord, error)

	GetSale(ctx context.Context, id uuid.UUID) (model.SaleRecord, error)
	ListSales(ctx context.Context, limit int) ([]model.SaleRecord, error)
}

type saleService struct {
	cfg    config.Sale
	logger *slog.Logger
	store  repository.Store
}

func NewSaleService(
	cfg config.Sale,
	logger *slog.Logger,
	store repository.Store,
) SaleService {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = defaultLookupTimeout
	}

	return &saleService{
		cfg:    cfg,
		logger: logger.With(slog.String("service", "sale")),
		store:  store,
	}
}

func (s *saleService) ProcessQuickSale(ctx context.Context, productID uuid.UUID, quantity int) (model.SaleRecord, error) {
	return s.ProcessCartCheckout(ctx, []model.CartLine{{ProductID: productID, Quantity: quantity}})
}

func (s *saleService) ProcessCartCheckout(ctx context.Context, lines []model.CartLine) (sale model.SaleRecord, err error) {
	ctx, span := tracer.Start(ctx, "SaleService.ProcessCartCheckout",
		trace.WithAttributes(attribute.Int("sale.lines", len(lines))),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "checkout failed")
		}
		span.End()
	}()

	if err := s.validateCart(lines); err != nil {
		return model.SaleRecord{}, err
	}

	products, err := s.checkAvailability(ctx, lines)
	if err != nil {
		return model.SaleRecord{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	items := make([]model.SoldItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, model.NewSoldItem(products[line.ProductID], line.Quantity))
	}

	sale, err = model.NewSaleRecord(id, time.Now(), items)
	if err != nil {
		return model.SaleRecord{}, fmt.Errorf("build sale record: %w", err)
	}

	return s.CommitSale(ctx, sale)
}

// validateCart rejects malformed carts before any store access.
func (s *saleService) validateCart(lines []model.CartLine) error {
	if len(lines) == 0 {
		return apperr.EmptyCartErr
	}

	if s.cfg.MaxCartLines > 0 && len(lines) > s.cfg.MaxCartLines {
		return apperr.ValidationErr.
			WithMsg(fmt.Sprintf("cart has more than %d lines", s.cfg.MaxCartLines)).
			WithDetail("max_lines", s.cfg.MaxCartLines)
	}

	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return apperr.ValidationErr.
				WithMsg("product id is required").
				WithDetail("line", i)
		}
		if line.Quantity <= 0 || line.Quantity > model.MaxQuantity {
			return apperr.InvalidQuantityErr.
				WithDetail("line", i).
				WithDetail("product_id", line.ProductID.String()).
				WithDetail("quantity", line.Quantity).
				WithDetail("max_quantity", model.MaxQuantity)
		}
	}

	if err := model.CheckQuantities(lines); err != nil {
		return apperr.InvalidQuantityErr.
			WithMsg(fmt.Sprintf("summed quantity per product must not exceed %d", model.MaxQuantity)).
			WithDetail("max_quantity", model.MaxQuantity).
			WrapParent(err)
	}

	return nil
}

// checkAvailability reads every product of the cart once and checks the summed
// quantity per product against its stock. Nothing is written.
func (s *saleService) checkAvailability(ctx context.Context, lines []model.CartLine) (map[uuid.UUID]model.Product, error) {
	demand := model.AggregateDecrements(lines)
	products := make(map[uuid.UUID]model.Product, len(demand))

	for _, d := range demand {
		product, err := s.store.Products().GetProduct(ctx, d.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, apperr.ProductNotFoundErr.
					WithDetail("product_id", d.ProductID.String())
			}
			return nil, apperr.StorageFailureErr.WrapParent(fmt.Errorf("get product: %w", err))
		}

		if !product.HasStock(d.Quantity) {
			return nil, apperr.InsufficientStockErr.
				WithMsg(fmt.Sprintf("not enough stock for %s", product.Name)).
				WithDetail("product_id", product.ID.String()).
				WithDetail("available", product.StockQuantity).
				WithDetail("requested", d.Quantity)
		}

		products[d.ProductID] = product
	}

	return products, nil
}

func (s *saleService) CommitSale(ctx context.Context, sale model.SaleRecord) (model.SaleRecord, error) {
	ctx = log.WithAttrs(ctx, slog.String("sale_id", sale.ID.String()))
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("sale.id", sale.ID.String()))

	if err := sale.Validate(); err != nil {
		return model.SaleRecord{}, apperr.ValidationErr.WithMsg(err.Error()).WrapParent(err)
	}

	commitCtx := ctx
	if s.cfg.CommitTimeout > 0 {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(ctx, s.cfg.CommitTimeout)
		defer cancel()
	}

	var remaining map[uuid.UUID]int
	err := s.store.WithTx(commitCtx, func(tx repository.Store) error {
		// The ledger append goes first so a replayed record is rejected before
		// any stock is touched.
		if err := tx.Sales().AppendSale(commitCtx, sale); err != nil {
			return fmt.Errorf("append sale: %w", err)
		}

		var err error
		remaining, err = tx.Products().BatchDecrementStock(commitCtx, sale.Decrements())
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		payload, err := json.Marshal(newSaleCompletedEvent(sale, remaining))
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}

		if err := tx.OutboxMsgs().CreateOutboxMsg(commitCtx, repository.CreateOutboxMsgParams{
			Topic:        event.TopicSaleCompleted,
			Headers:      outbox.BuildHeaders(ctx),
			Payload:      payload,
			PartitionKey: ptr.New(sale.ID.String()),
		}); err != nil {
			return fmt.Errorf("create outbox msg: %w", err)
		}

		return nil
	})
	if err != nil {
		return s.resolveCommitFailure(ctx, sale, err)
	}

	committed := withRemainingStock(sale, remaining)
	s.logger.InfoContext(ctx, "sale committed",
		slog.Int("items", len(committed.Items)),
		slog.String("total_amount", committed.TotalAmount.StringFixed(2)),
	)

	return committed, nil
}

// resolveCommitFailure turns a failed atomic unit into a definite outcome. Known
// rejections map to their codes; anything else may have committed before the
// connection or deadline was lost, so the ledger decides.
func (s *saleService) resolveCommitFailure(ctx context.Context, sale model.SaleRecord, commitErr error) (model.SaleRecord, error) {
	var shortage *repository.StockShortageError
	switch {
	case errors.Is(commitErr, repository.ErrDuplicateSale):
		return model.SaleRecord{}, apperr.DuplicateSaleErr.
			WithDetail("sale_id", sale.ID.String()).
			WrapParent(commitErr)

	case errors.As(commitErr, &shortage):
		return model.SaleRecord{}, apperr.StockConflictErr.
			WithDetail("product_id", shortage.ProductID.String()).
			WithDetail("available", shortage.Available).
			WithDetail("requested", shortage.Requested).
			WrapParent(commitErr)

	case errors.Is(commitErr, repository.ErrInsufficientStock):
		return model.SaleRecord{}, apperr.StockConflictErr.WrapParent(commitErr)

	case errors.Is(commitErr, repository.ErrProductNotFound):
		return model.SaleRecord{}, apperr.ProductNotFoundErr.WrapParent(commitErr)

	case errors.Is(commitErr, repository.ErrInvalidStockQuantity):
		return model.SaleRecord{}, apperr.InvalidQuantityErr.WrapParent(commitErr)
	}

	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.LookupTimeout)
	defer cancel()

	committed, lookupErr := s.store.Sales().GetSale(lookupCtx, sale.ID)
	switch {
	case lookupErr == nil:
		s.logger.WarnContext(ctx, "sale commit reported failure but the sale is in the ledger",
			slog.Any("error", commitErr),
		)
		return committed, nil

	case !errors.Is(lookupErr, repository.ErrSaleNotFound):
		s.logger.ErrorContext(ctx, "sale commit outcome could not be confirmed",
			slog.Any("error", commitErr),
			slog.Any("lookup_error", lookupErr),
		)
		return model.SaleRecord{}, apperr.SaleOutcomeUnknownErr.
			WithDetail("sale_id", sale.ID.String()).
			WrapParent(errors.Join(commitErr, lookupErr))

	case errors.Is(commitErr, context.DeadlineExceeded):
		return model.SaleRecord{}, apperr.CommitTimeoutErr.WrapParent(commitErr)

	default:
		return model.SaleRecord{}, apperr.StorageFailureErr.WrapParent(commitErr)
	}
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (model.SaleRecord, error) {
	sale, err := s.store.Sales().GetSale(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return model.SaleRecord{}, apperr.SaleNotFoundErr.WithDetail("sale_id", id.String())
		}
		return model.SaleRecord{}, fmt.Errorf("sale repository get sale: %w", err)
	}

	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, limit int) ([]model.SaleRecord, error) {
	sales, err := s.store.Sales().ListSales(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("sale repository list sales: %w", err)
	}

	return sales, nil
}

func withRemainingStock(sale model.SaleRecord, remaining map[uuid.UUID]int) model.SaleRecord {
	items := make([]model.SoldItem, len(sale.Items))
	for i, item := range sale.Items {
		if stock, ok := remaining[item.ProductID]; ok {
			item.RemainingStock = ptr.New(stock)
		}
		items[i] = item
	}
	sale.Items = items
	return sale
}

func newSaleCompletedEvent(sale model.SaleRecord, remaining map[uuid.UUID]int) event.SaleCompletedEvent {
	items := make([]event.SaleCompletedItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, event.SaleCompletedItem{
			ProductID:      item.ProductID.String(),
			ProductName:    item.ProductName,
			UnitPrice:      item.UnitPrice,
			Quantity:       item.Quantity,
			Subtotal:       item.Subtotal,
			RemainingStock: remaining[item.ProductID],
		})
	}

	return event.SaleCompletedEvent{
		SaleID:      sale.ID.String(),
		CreatedAt:   sale.CreatedAt,
		TotalAmount: sale.TotalAmount,
		Items:       items,
	}
}
