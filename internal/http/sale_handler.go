package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tuanvumaihuynh/inventory-sale/internal/http/metric"
	"github.com/tuanvumaihuynh/inventory-sale/internal/model"
	"github.com/tuanvumaihuynh/inventory-sale/internal/service"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/validator"
	"github.com/tuanvumaihuynh/inventory-sale/pkg/zerror"
)

const (
	defaultSaleListLimit = 50
	maxSaleListLimit     = 500
)

type saleHandler struct {
	saleSvc   service.SaleService
	metrics   *metric.Metrics
	validator validator.Validator
}

func newSaleHandler(saleSvc service.SaleService, metrics *metric.Metrics, v validator.Validator) *saleHandler {
	return &saleHandler{
		saleSvc:   saleSvc,
		metrics:   metrics,
		validator: v,
	}
}

func (h *saleHandler) Checkout(w http.ResponseWriter, r *http.Request) error {
	var req CheckoutRequest
	if err := decodeBody(h.validator, w, r, &req); err != nil {
		return err
	}

	lines := make([]model.CartLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, model.CartLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	sale, err := h.saleSvc.ProcessCartCheckout(r.Context(), lines)
	h.observe("checkout", err)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, newSaleResponse(sale))
}

func (h *saleHandler) QuickSale(w http.ResponseWriter, r *http.Request) error {
	var req QuickSaleRequest
	if err := decodeBody(h.validator, w, r, &req); err != nil {
		return err
	}

	sale, err := h.saleSvc.ProcessQuickSale(r.Context(), req.ProductID, req.Quantity)
	h.observe("quick", err)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, newSaleResponse(sale))
}

func (h *saleHandler) ListSales(w http.ResponseWriter, r *http.Request) error {
	limit, err := queryInt(r, "limit", defaultSaleListLimit, 1, maxSaleListLimit)
	if err != nil {
		return err
	}

	sales, err := h.saleSvc.ListSales(r.Context(), limit)
	if err != nil {
		return err
	}

	items := make([]SaleResponse, 0, len(sales))
	for _, sale := range sales {
		items = append(items, newSaleResponse(sale))
	}

	return writeJSON(w, http.StatusOK, items)
}

func (h *saleHandler) GetSale(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "saleId")
	if err != nil {
		return err
	}

	sale, err := h.saleSvc.GetSale(r.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, newSaleResponse(sale))
}

func (h *saleHandler) observe(kind string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		var zErr zerror.ZError
		if errors.As(err, &zErr) {
			outcome = strings.ToLower(zErr.Code())
		}
	}

	h.metrics.SaleOutcomes.WithLabelValues(kind, outcome).Inc()
}
