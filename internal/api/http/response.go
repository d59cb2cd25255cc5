package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"closet-rental-backend/internal/domain"
	"closet-rental-backend/internal/logger"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body Response) {
	body.Timestamp = time.Now().UTC()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

func respondOK(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	body := Response{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	writeJSON(w, statusCode, body)
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRentalNotFound),
		errors.Is(err, domain.ErrOutfitNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConcurrentUpdate),
		errors.Is(err, domain.ErrRentalLocked),
		errors.Is(err, domain.ErrDatesUnavailable),
		errors.Is(err, domain.ErrQCRequired),
		errors.Is(err, domain.ErrQCAlreadySubmitted),
		errors.Is(err, domain.ErrNotDisputed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrQCNotApplicable),
		errors.Is(err, domain.ErrIssueReportNotAllowed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
		respondError(w, code, "internal error", nil)
		return
	}
	respondError(w, code, http.StatusText(code), err)
}
