package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tuanvumaihuynh/inventory-sale/internal/repository"
)

type ReportSummary struct {
	StockByCategory map[string]int
	TotalRevenue    decimal.Decimal
	SaleCount       int
}

// ReportService computes display aggregates. Every read is a snapshot with no
// isolation against sales landing while it runs.
//
// On the in-memory store a sale's writes become visible one by one and a failed
// sale is undone after the fact. A report taken meanwhile can count a sale whose
// stock decrement has not landed yet, or one that is rolled back later. Postgres
// reports only ever see committed sales.
type ReportService interface {
	// StockByCategory maps category name to the total stock of its products.
	// Categories without products are omitted.
	StockByCategory(ctx context.Context) (map[string]int, error)
	// TotalRevenue sums the totals of every recorded sale. It is zero for an empty ledger.
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	Summary(ctx context.Context) (ReportSummary, error)
}

type reportService struct {
	logger *slog.Logger
	store  repository.Store
}

func NewReportService(logger *slog.Logger, store repository.Store) ReportService {
	return &reportService{
		logger: logger.With(slog.String("service", "report")),
		store:  store,
	}
}

func (s *reportService) StockByCategory(ctx context.Context) (map[string]int, error) {
	totals, err := s.store.Products().SumStockByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository sum stock by category: %w", err)
	}

	categories, err := s.store.Categories().ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("category repository list categories: %w", err)
	}

	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	stock := make(map[string]int, len(totals))
	for categoryID, total := range totals {
		name, ok := names[categoryID]
		if !ok {
			s.logger.WarnContext(ctx, "stock grouped under unknown category",
				slog.String("category_id", categoryID.String()),
			)
			continue
		}
		stock[name] += total
	}

	return stock, nil
}

func (s *reportService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.store.Sales().SumSaleTotals(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sale repository sum sale totals: %w", err)
	}

	return total, nil
}

func (s *reportService) Summary(ctx context.Context) (ReportSummary, error) {
	var summary ReportSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stock, err := s.StockByCategory(gctx)
		summary.StockByCategory = stock
		return err
	})
	g.Go(func() error {
		revenue, err := s.TotalRevenue(gctx)
		summary.TotalRevenue = revenue
		return err
	})
	g.Go(func() error {
		count, err := s.store.Sales().CountSales(gctx)
		if err != nil {
			return fmt.Errorf("sale repository count sales: %w", err)
		}
		summary.SaleCount = count
		return nil
	})

	if err := g.Wait(); err != nil {
		return ReportSummary{}, err
	}

	return summary, nil
}
