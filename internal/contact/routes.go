package contact

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the contact form endpoints on the router. The
// submission route accepts every verb; the pipeline's method check turns
// non-POST requests into a 405 with the standard response body.
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.HandleFunc("/contact", handler.Submit)
	r.Get("/csrf-token", handler.CSRFToken)
}
