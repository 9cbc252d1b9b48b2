package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-centrality-service/pkg/models"
	"github.com/gilchrisn/graph-centrality-service/pkg/ranking"
	"github.com/gilchrisn/graph-centrality-service/pkg/service"
)

const (
	measureCloseness   = "closeness"
	measureBetweenness = "betweenness"
)

// Handlers contains HTTP request handlers
type Handlers struct {
	datasetService *service.DatasetService
	jobService     *service.JobService
	defaultTopN    int
	startedAt      time.Time
}

// NewHandlers creates new API handlers. defaultTopN sizes result listings
// when neither the request nor the job asks for a size.
func NewHandlers(datasetService *service.DatasetService, jobService *service.JobService, defaultTopN int) *Handlers {
	return &Handlers{
		datasetService: datasetService,
		jobService:     jobService,
		defaultTopN:    defaultTopN,
		startedAt:      time.Now(),
	}
}

// UploadDataset accepts either a multipart form with a "file" part or the
// raw edge list as the request body. The format and name come from form
// fields or query parameters.
func (h *Handlers) UploadDataset(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Dataset upload request received")

	var (
		body   io.Reader = r.Body
		name             = r.URL.Query().Get("name")
		format           = r.URL.Query().Get("format")
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "Invalid multipart form", err)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "Missing required file: file", err)
			return
		}
		defer file.Close()
		body = file

		if v := r.FormValue("name"); v != "" {
			name = v
		}
		if v := r.FormValue("format"); v != "" {
			format = v
		}
	}

	dataset, err := h.datasetService.Upload(name, format, body)
	if err != nil {
		log.Error().Err(err).Msg("Dataset upload failed")
		WriteErrorResponse(w, statusFor(err), "Dataset upload failed", err)
		return
	}

	WriteSuccessResponse(w, http.StatusCreated, "Dataset uploaded successfully", models.UploadResponse{
		DatasetID: dataset.ID,
		Dataset:   *dataset,
	})
}

// ListDatasets lists all datasets
func (h *Handlers) ListDatasets(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, http.StatusOK, "Datasets retrieved successfully", h.datasetService.List())
}

// GetDataset retrieves a specific dataset
func (h *Handlers) GetDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	dataset, err := h.datasetService.Get(datasetID)
	if err != nil {
		WriteErrorResponse(w, statusFor(err), "Dataset not found", err)
		return
	}
	WriteSuccessResponse(w, http.StatusOK, "Dataset retrieved successfully", dataset)
}

// DeleteDataset deletes a dataset
func (h *Handlers) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	if err := h.datasetService.Delete(datasetID); err != nil {
		WriteErrorResponse(w, statusFor(err), "Dataset deletion failed", err)
		return
	}
	WriteSuccessResponse(w, http.StatusOK, "Dataset deleted successfully", nil)
}

// ListDatasetJobs lists the jobs submitted for a dataset
func (h *Handlers) ListDatasetJobs(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	if _, err := h.datasetService.Get(datasetID); err != nil {
		WriteErrorResponse(w, statusFor(err), "Dataset not found", err)
		return
	}
	WriteSuccessResponse(w, http.StatusOK, "Jobs retrieved successfully", h.jobService.List(datasetID))
}

// StartCentrality queues a centrality job for a dataset. An empty body
// uses the service defaults.
func (h *Handlers) StartCentrality(w http.ResponseWriter, r *http.Request) {
	datasetID := mux.Vars(r)["datasetId"]

	var params models.JobParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.jobService.Submit(datasetID, params)
	if err != nil {
		log.Error().
			Str("dataset_id", datasetID).
			Err(err).
			Msg("Failed to start centrality job")
		WriteErrorResponse(w, statusFor(err), "Failed to start centrality job", err)
		return
	}

	WriteSuccessResponse(w, http.StatusAccepted, "Centrality job started", job)
}

// GetJob retrieves job status
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Get(jobID)
	if err != nil {
		WriteErrorResponse(w, statusFor(err), "Job not found", err)
		return
	}
	WriteSuccessResponse(w, http.StatusOK, "Job retrieved successfully", job)
}

// CancelJob cancels a queued or running job
func (h *Handlers) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	job, err := h.jobService.Cancel(jobID)
	if err != nil {
		WriteErrorResponse(w, statusFor(err), "Job cancellation failed", err)
		return
	}
	WriteSuccessResponse(w, http.StatusOK, "Job cancelled", job)
}

// GetJobResult returns the ranked scores of a completed job.
// Query parameters: top (0 lists every node) and measure.
func (h *Handlers) GetJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]
	query := r.URL.Query()

	job, err := h.jobService.Get(jobID)
	if err != nil {
		WriteErrorResponse(w, statusFor(err), "Job not found", err)
		return
	}

	top := h.defaultTopN
	if job.Parameters.TopN > 0 {
		top = job.Parameters.TopN
	}
	if s := query.Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteErrorResponse(w, http.StatusBadRequest, "Invalid top parameter", fmt.Errorf("top must be a non-negative integer, got %q", s))
			return
		}
		top = n
	}

	measure := query.Get("measure")
	switch measure {
	case "", measureCloseness, measureBetweenness:
	default:
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid measure parameter",
			fmt.Errorf("measure must be %q or %q, got %q", measureCloseness, measureBetweenness, measure))
		return
	}

	result, err := h.jobService.Result(jobID)
	if err != nil {
		WriteErrorResponse(w, statusFor(err), "Job result not available", err)
		return
	}

	response := models.RankingResponse{
		JobID:     job.ID,
		DatasetID: job.DatasetID,
	}
	if measure == "" || measure == measureCloseness {
		response.Closeness = ranking.TopN(result.Closeness, top)
	}
	if measure == "" || measure == measureBetweenness {
		response.Betweenness = ranking.TopN(result.Betweenness, top)
	}

	WriteSuccessResponse(w, http.StatusOK, "Job result retrieved successfully", response)
}

// HealthCheck provides a health check endpoint
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccessResponse(w, http.StatusOK, "Service is healthy", map[string]interface{}{
		"status":   "healthy",
		"datasets": len(h.datasetService.List()),
		"jobs":     len(h.jobService.List("")),
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
	})
}
