package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all universe routes
func (h *UniverseHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/underlyings", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{isin}", h.HandleGet)
		r.Delete("/{isin}", h.HandleDelete)
		r.Post("/{isin}/closes", h.HandleAddCloses)
		r.Get("/{isin}/volatility", h.HandleGetVolatility)
	})
}
