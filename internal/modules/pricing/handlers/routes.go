package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all pricing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pricing", func(r chi.Router) {
		r.Post("/price", h.HandlePrice)
		r.Get("/stream", h.HandleStream)

		r.Route("/products", func(r chi.Router) {
			r.Post("/", h.HandleSaveProduct)
			r.Get("/", h.HandleListProducts)
			r.Post("/{id}/revalue", h.HandleRevalue)
			r.Get("/{id}/valuations", h.HandleGetValuations)
		})
	})
}
