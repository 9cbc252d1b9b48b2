package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/graph-centrality-service/pkg/graph"
	"github.com/gilchrisn/graph-centrality-service/pkg/models"
	"github.com/gilchrisn/graph-centrality-service/pkg/service"
)

// WriteSuccessResponse writes a successful JSON response
func WriteSuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSONResponse(w, statusCode, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// WriteErrorResponse writes an error JSON response
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := models.APIResponse{
		Success: false,
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}
	writeJSONResponse(w, statusCode, response)
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrDatasetNotFound), errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidDataset), errors.Is(err, service.ErrInvalidJob),
		errors.Is(err, graph.ErrUnknownNode), errors.Is(err, graph.ErrDuplicateNode):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrJobNotDone):
		return http.StatusConflict
	case errors.Is(err, service.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrServiceStopping):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Int("status_code", statusCode).
			Msg("Failed to encode JSON response")
	}
}
