package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/gilchrisn/graph-centrality-service/pkg/metrics"
)

// SetupRoutes registers the API and metrics routes on router
func SetupRoutes(router *mux.Router, handlers *Handlers, collector *metrics.Collector) {
	api := router.PathPrefix("/api/v1").Subrouter()

	// Dataset management endpoints
	datasets := api.PathPrefix("/datasets").Subrouter()
	datasets.HandleFunc("", handlers.ListDatasets).Methods(http.MethodGet)
	datasets.HandleFunc("", handlers.UploadDataset).Methods(http.MethodPost)
	datasets.HandleFunc("/{datasetId}", handlers.GetDataset).Methods(http.MethodGet)
	datasets.HandleFunc("/{datasetId}", handlers.DeleteDataset).Methods(http.MethodDelete)

	// Centrality endpoints
	datasets.HandleFunc("/{datasetId}/centrality", handlers.StartCentrality).Methods(http.MethodPost)
	datasets.HandleFunc("/{datasetId}/jobs", handlers.ListDatasetJobs).Methods(http.MethodGet)

	// Job management endpoints
	jobs := api.PathPrefix("/jobs").Subrouter()
	jobs.HandleFunc("/{jobId}", handlers.GetJob).Methods(http.MethodGet)
	jobs.HandleFunc("/{jobId}/cancel", handlers.CancelJob).Methods(http.MethodPost)
	jobs.HandleFunc("/{jobId}/result", handlers.GetJobResult).Methods(http.MethodGet)

	api.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	if collector != nil {
		router.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	}
}

// NewRouter builds the complete HTTP handler with middleware applied
func NewRouter(handlers *Handlers, collector *metrics.Collector) http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, handlers, collector)

	router.Use(LoggingMiddleware(collector))
	router.Use(RecoveryMiddleware)

	return NewCORS().Handler(router)
}
