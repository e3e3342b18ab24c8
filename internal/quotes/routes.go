package quotes

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the quote endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotes", h.List)
	r.Post("/quotes", h.Create)
	r.Get("/quotes/{id}", h.Show)
	r.Post("/quotes/{id}/send", h.Send)
	r.Post("/quotes/{id}/accept", h.Accept)
	r.Post("/quotes/{id}/revoke", h.Revoke)
	r.Post("/quotes/{id}/revise", h.Revise)
}
