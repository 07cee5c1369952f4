package datasetapi

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers dataset routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/datasets", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Get("/", h.List)

		r.Route("/{dataset_id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Delete)
			r.Get("/schema", h.Schema)
			r.Get("/preview", h.Preview)
			r.Post("/query", h.Query)

			r.Post("/insights", h.Insights)
			r.Post("/charts/suggest", h.SuggestCharts)
			r.Post("/report", h.Report)
			r.Get("/report/export", h.ExportReport)

			r.Post("/index", h.Index)
			r.Post("/search", h.Search)
		})
	})
}
