package api

import (
	"net/http"
	"time"

	"github.com/Ziad-epi/ai-data-copilot/internal/api/chatapi"
	"github.com/Ziad-epi/ai-data-copilot/internal/api/datasetapi"
	"github.com/Ziad-epi/ai-data-copilot/internal/api/docs"
	"github.com/Ziad-epi/ai-data-copilot/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(datasetHandler *datasetapi.Handler, chatHandler *chatapi.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)                 // Recover from panics
	r.Use(chimiddleware.RequestID)                 // Add request ID
	r.Use(middleware.Logger(logger))               // Log requests
	r.Use(middleware.CORS)                         // Handle CORS
	r.Use(chimiddleware.Timeout(60 * time.Second)) // Default timeout

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Swagger documentation endpoints
	docs.RegisterRoutes(r)

	// Register routes
	datasetapi.RegisterRoutes(r, datasetHandler)
	chatapi.RegisterRoutes(r, chatHandler)

	return r
}
