package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type errorMapping struct {
	err    error
	status int
	title  string
}

// Specific errors come before the category they wrap.
var errorMappings = []errorMapping{
	{clearance.ErrContainerNotFound, http.StatusNotFound, "Container not found"},
	{clearance.ErrNotFound, http.StatusNotFound, "Not found"},

	{clearance.ErrDuplicateContainer, http.StatusConflict, "Container already exists"},
	{clearance.ErrAlreadyPaid, http.StatusConflict, "Already paid"},
	{clearance.ErrAlreadyScheduled, http.StatusConflict, "Already scheduled"},
	{clearance.ErrTerminalState, http.StatusConflict, "Container is closed"},
	{clearance.ErrConflict, http.StatusConflict, "Conflict"},

	{clearance.ErrInsufficientPayment, http.StatusUnprocessableEntity, "Insufficient payment"},
	{clearance.ErrInvalidPayment, http.StatusUnprocessableEntity, "Invalid payment"},
	{clearance.ErrCustomsNotCleared, http.StatusUnprocessableEntity, "Customs not cleared"},
	{clearance.ErrInspectionNotPassed, http.StatusUnprocessableEntity, "Inspection not passed"},
	{clearance.ErrGuardViolation, http.StatusUnprocessableEntity, "Operation not allowed"},

	{clearance.ErrDocumentParse, http.StatusBadRequest, "Document parsing failed"},
	{storage.ErrInvalidFilter, http.StatusBadRequest, "Invalid filter"},
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{Error: message, Details: details})
}

// respondStorageError maps err onto a status code. Unknown errors are
// logged and reported without details.
func (s *Server) respondStorageError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			respondError(w, m.status, m.title, err.Error())
			return
		}
	}
	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	respondError(w, http.StatusInternalServerError, "Server error", "")
}
