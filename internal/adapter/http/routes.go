package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the preview API and WebSocket endpoint on r.
func MountRoutes(r chi.Router, h *Handlers, ws http.HandlerFunc) {
	r.Get("/health", h.Health)
	r.Get("/ws", ws)

	r.Route("/api/v1", func(r chi.Router) {
		// Invoice
		r.Get("/invoice", h.GetInvoice)
		r.Get("/invoice/document", h.GetDocument)
		r.Get("/invoice/export", h.DownloadInvoice)
		r.Post("/invoice/export", h.SaveInvoice)

		// Line items
		r.Post("/items", h.AddItem)
		r.Put("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.RemoveItem)

		// Landlord and tenant
		r.Put("/identity/{kind}", h.SetIdentityField)
	})
}
