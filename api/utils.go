package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/htol/bookshelf/logger"
	"github.com/htol/bookshelf/metrics"
	"github.com/htol/bookshelf/repo"
	"github.com/htol/bookshelf/service"
	"github.com/htol/bookshelf/validator"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps request payloads
const maxBodyBytes = 1 << 20

const (
	statusSuccess = "success"
	statusError   = "error"
)

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// respondWithJSON writes v as a JSON response with the given status code
func respondWithJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// respondWithError logs an error and sends an HTTP error response as JSON
func respondWithError(w http.ResponseWriter, message string, err error, statusCode int) {
	logger.Error(message, "error", err, "status", statusCode)
	respondWithJSON(w, statusCode, errorResponse{Status: statusError, Error: message})
}

// respondWithValidationError sends a validation error response as JSON
func respondWithValidationError(w http.ResponseWriter, route, message string) {
	logger.Warn("Validation error", "route", route, "message", message)
	metrics.ObserveInvalidRequest(route)
	respondWithJSON(w, http.StatusBadRequest, errorResponse{Status: statusError, Error: message})
}

// respondWithServiceError maps service and validation errors to status codes
func respondWithServiceError(w http.ResponseWriter, route, message string, err error) {
	switch {
	case isValidationError(err):
		respondWithValidationError(w, route, err.Error())
	case errors.Is(err, repo.ErrNotFound):
		respondWithError(w, "book not found", err, http.StatusNotFound)
	default:
		respondWithError(w, message, err, http.StatusInternalServerError)
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		service.ErrInvalidRequest,
		validator.ErrEmptyIDs,
		validator.ErrInvalidInteger,
		validator.ErrOutOfRange,
		validator.ErrInvalidBool,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeBody decodes a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
