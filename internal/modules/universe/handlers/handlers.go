// Package handlers provides HTTP handlers for underlying reference data and price history.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/mcpricer/internal/domain"
	"github.com/aristath/mcpricer/internal/modules/marketdata"
	"github.com/aristath/mcpricer/internal/modules/universe"
)

// UniverseHandlers contains HTTP handlers for the universe API
type UniverseHandlers struct {
	repo      *universe.Repository
	history   *marketdata.HistoryRepository
	estimator *marketdata.VolatilityEstimator
	log       zerolog.Logger
}

// NewUniverseHandlers creates a new universe handlers instance
func NewUniverseHandlers(
	repo *universe.Repository,
	history *marketdata.HistoryRepository,
	estimator *marketdata.VolatilityEstimator,
	log zerolog.Logger,
) *UniverseHandlers {
	return &UniverseHandlers{
		repo:      repo,
		history:   history,
		estimator: estimator,
		log:       log.With().Str("handler", "universe").Logger(),
	}
}

// CreateUnderlyingRequest is the body of POST /api/underlyings
type CreateUnderlyingRequest struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Exchange    string `json:"exchange"`
	ISIN        string `json:"isin"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// HandleList handles GET /api/underlyings
func (h *UniverseHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	underlyings, err := h.repo.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	if underlyings == nil {
		underlyings = []*universe.Underlying{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"underlyings": underlyings,
		"count":       len(underlyings),
	})
}

// HandleCreate handles POST /api/underlyings
func (h *UniverseHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUnderlyingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := universe.NewUnderlying(req.Name, req.Symbol, req.Exchange, req.ISIN, req.Type, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}

	added, err := h.repo.Add(u)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !added {
		http.Error(w, "Underlying with ISIN "+u.ISIN+" already exists", http.StatusConflict)
		return
	}

	h.writeJSON(w, http.StatusCreated, u)
}

// HandleGet handles GET /api/underlyings/{isin}
func (h *UniverseHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.Get(chi.URLParam(r, "isin"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

// HandleDelete handles DELETE /api/underlyings/{isin}
func (h *UniverseHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := h.repo.Remove(chi.URLParam(r, "isin"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !removed {
		http.Error(w, "Underlying not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddCloses handles POST /api/underlyings/{isin}/closes
func (h *UniverseHandlers) HandleAddCloses(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.Get(chi.URLParam(r, "isin"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var closes []marketdata.DailyClose
	if err := json.NewDecoder(r.Body).Decode(&closes); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.history.AddCloses(u.ISIN, closes); err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"isin":   u.ISIN,
		"stored": len(closes),
	})
}

// HandleGetVolatility handles GET /api/underlyings/{isin}/volatility?window=N
func (h *UniverseHandlers) HandleGetVolatility(w http.ResponseWriter, r *http.Request) {
	u, err := h.repo.Get(chi.URLParam(r, "isin"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	window := marketdata.DefaultVolatilityWindow
	if s := r.URL.Query().Get("window"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 2 {
			http.Error(w, "window must be an integer >= 2", http.StatusBadRequest)
			return
		}
		window = n
	}

	vol, err := h.estimator.Estimate(u.ISIN, window)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"isin":        u.ISIN,
		"window":      window,
		"volatility":  vol,
		"computed_at": time.Now().Format(time.RFC3339),
	})
}

func (h *UniverseHandlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, universe.ErrUnderlyingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, marketdata.ErrInsufficientHistory):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.log.Error().Err(err).Msg("Universe request failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeJSON writes a JSON response
func (h *UniverseHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
