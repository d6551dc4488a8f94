// Package handlers provides HTTP handlers for pricing and the product book.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/pricing"
)

// Handler handles pricing HTTP requests
type Handler struct {
	service *pricing.Service
	log     zerolog.Logger
}

// NewHandler creates a new pricing handler
func NewHandler(service *pricing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "pricing").Logger(),
	}
}

// SaveProductRequest is the body of POST /api/pricing/products
type SaveProductRequest struct {
	Name    string                 `json:"name"`
	Request pricing.PricingRequest `json:"request"`
}

// HandlePrice handles POST /api/pricing/price
func (h *Handler) HandlePrice(w http.ResponseWriter, r *http.Request) {
	var req pricing.PricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Price(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(result))
}

// HandleSaveProduct handles POST /api/pricing/products
func (h *Handler) HandleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var req SaveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.service.SaveProduct(req.Name, &req.Request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope(product))
}

// HandleListProducts handles GET /api/pricing/products
func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products().List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if products == nil {
		products = []*pricing.Product{}
	}

	h.writeJSON(w, http.StatusOK, envelope(products))
}

// HandleRevalue handles POST /api/pricing/products/{id}/revalue
func (h *Handler) HandleRevalue(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Revalue(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope(record))
}

// HandleGetValuations handles GET /api/pricing/products/{id}/valuations
func (h *Handler) HandleGetValuations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.service.Products().Get(id); err != nil {
		h.writeError(w, err)
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.service.Products().GetValuations(id, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []*pricing.ValuationRecord{}
	}

	h.writeJSON(w, http.StatusOK, envelope(records))
}

func envelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, pricing.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Pricing request failed")
	} else {
		h.log.Debug().Err(err).Int("status", status).Msg("Pricing request rejected")
	}
	http.Error(w, err.Error(), status)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
