package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
)

type reportHandler struct {
	reportSvc service.ReportService
}

func newReportHandler(reportSvc service.ReportService) *reportHandler {
	return &reportHandler{reportSvc: reportSvc}
}

func (h *reportHandler) StockByCategory(w http.ResponseWriter, r *http.Request) error {
	stock, err := h.reportSvc.StockByCategory(r.Context())
	if err != nil {
		return fmt.Errorf("report service stock by category: %w", err)
	}

	return writeJSON(w, http.StatusOK, StockByCategoryResponse{StockByCategory: stock})
}

func (h *reportHandler) Revenue(w http.ResponseWriter, r *http.Request) error {
	revenue, err := h.reportSvc.TotalRevenue(r.Context())
	if err != nil {
		return fmt.Errorf("report service total revenue: %w", err)
	}

	return writeJSON(w, http.StatusOK, RevenueResponse{TotalRevenue: money(revenue)})
}

func (h *reportHandler) Summary(w http.ResponseWriter, r *http.Request) error {
	summary, err := h.reportSvc.Summary(r.Context())
	if err != nil {
		return fmt.Errorf("report service summary: %w", err)
	}

	return writeJSON(w, http.StatusOK, newSummaryResponse(summary))
}
