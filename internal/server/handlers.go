package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/billoflading"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/clearance"
	"gitlab.ozon.dev/pupkingeorgij/portflow/internal/storage"
)

const (
	maxUploadBytes  = 10 << 20
	maxRequestBytes = 1 << 20

	scheduleMessageLayout = "January 02, 2006 at 03:04 PM"
)

type uploadRequest struct {
	Filename string                   `json:"filename"`
	Data     *clearance.ExtractedData `json:"data"`
	Text     string                   `json:"text"`
}

type uploadResponse struct {
	ContainerID   string                  `json:"container_id"`
	OverallStatus clearance.OverallStatus `json:"overall_status"`
	Warnings      []string                `json:"warnings,omitempty"`
	Message       string                  `json:"message"`
}

type listResponse struct {
	Containers []*clearance.Container `json:"containers"`
	Count      int                    `json:"count"`
}

type validateRequest struct {
	ContainerID     string `json:"container_id"`
	ForceRevalidate bool   `json:"force_revalidate"`
}

type validateResponse struct {
	clearance.ValidationResult
	Message string `json:"message"`
}

type customsStatusResponse struct {
	clearance.CustomsStatusResult
	Message string `json:"message"`
}

type payRequest struct {
	ContainerID      string          `json:"container_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentReference string          `json:"payment_reference"`
}

type payResponse struct {
	clearance.PaymentResult
	Message string `json:"message"`
}

type shippingStatusResponse struct {
	clearance.ShippingStatusResult
	Message string `json:"message"`
}

type containerRequest struct {
	ContainerID string `json:"container_id"`
}

type scheduleResponse struct {
	clearance.InspectionScheduleResult
	ScheduledDate string `json:"scheduled_date"`
	Message       string `json:"message"`
}

type dataResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type inspectionData struct {
	ContainerID   string                     `json:"container_id"`
	Status        clearance.InspectionStatus `json:"status"`
	OverallStatus clearance.OverallStatus    `json:"overall_status"`
}

type releaseData struct {
	ContainerID    string                   `json:"container_id"`
	Status         clearance.OverallStatus  `json:"status"`
	ShippingStatus clearance.ShippingStatus `json:"shipping_status"`
	ReadyForPickup bool                     `json:"ready_for_pickup"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if !decodeBody(w, r, &req, maxUploadBytes) {
		return
	}

	if strings.TrimSpace(req.Filename) == "" {
		respondError(w, http.StatusBadRequest, "Invalid request", "filename is required")
		return
	}

	var (
		data     clearance.ExtractedData
		warnings []string
	)
	switch {
	case req.Data != nil:
		data = *req.Data
	case req.Text != "":
		parsed := billoflading.Parse(req.Text)
		if !parsed.Success {
			respondError(w, http.StatusBadRequest, "Document parsing failed", strings.Join(parsed.Errors, "; "))
			return
		}
		data = parsed.Data
		warnings = parsed.Errors
	default:
		respondError(w, http.StatusBadRequest, "Invalid request", "either data or text is required")
		return
	}

	container, err := s.storage.CreateContainer(r.Context(), data, req.Filename)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, uploadResponse{
		ContainerID:   container.ContainerID,
		OverallStatus: container.OverallStatus,
		Warnings:      warnings,
		Message:       "Document uploaded and parsed successfully",
	})
}

func (s *Server) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	container, err := s.storage.GetContainer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, container)
}

func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	filter := storage.ListFilter{Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid filter", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	containers, err := s.storage.ListContainers(r.Context(), filter)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}
	if containers == nil {
		containers = []*clearance.Container{}
	}
	respondJSON(w, http.StatusOK, listResponse{Containers: containers, Count: len(containers)})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decodeBody(w, r, &req, maxRequestBytes) || !requireID(w, req.ContainerID) {
		return
	}

	result, err := s.storage.ValidateContainer(r.Context(), req.ContainerID, req.ForceRevalidate)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	msg := "Validation successful"
	if !result.Valid {
		msg = "Validation failed"
	}
	respondJSON(w, http.StatusOK, validateResponse{ValidationResult: result, Message: msg})
}

func (s *Server) handleCustomsStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.storage.CheckCustomsStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	msg := "No payment required"
	switch {
	case result.AmountDue.Valid:
		msg = "Customs duty: " + clearance.FormatNaira(result.AmountDue.Decimal)
	case result.Status == clearance.CustomsPaid:
		msg = "Customs cleared"
	}
	respondJSON(w, http.StatusOK, customsStatusResponse{CustomsStatusResult: result, Message: msg})
}

func (s *Server) handleCustomsPay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if !decodeBody(w, r, &req, maxRequestBytes) || !requireID(w, req.ContainerID) {
		return
	}

	result, err := s.storage.PayCustomsDuty(r.Context(), req.ContainerID, req.Amount, req.PaymentReference)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, payResponse{
		PaymentResult: result,
		Message:       "Customs duty payment processed successfully",
	})
}

func (s *Server) handleShippingStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.storage.CheckShippingStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	status := strings.ToLower(strings.ReplaceAll(string(result.ShippingStatus), "_", " "))
	respondJSON(w, http.StatusOK, shippingStatusResponse{
		ShippingStatusResult: result,
		Message:              "Container is " + status,
	})
}

func (s *Server) handleScheduleInspection(w http.ResponseWriter, r *http.Request) {
	var req containerRequest
	if !decodeBody(w, r, &req, maxRequestBytes) || !requireID(w, req.ContainerID) {
		return
	}

	result, err := s.storage.ScheduleInspection(r.Context(), req.ContainerID)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, scheduleResponse{
		InspectionScheduleResult: result,
		ScheduledDate:            result.ScheduledDateString(),
		Message:                  "Inspection scheduled for " + result.ScheduledDate.Format(scheduleMessageLayout),
	})
}

func (s *Server) handleCompleteInspection(w http.ResponseWriter, r *http.Request) {
	passed := true
	if raw := r.URL.Query().Get("passed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request", "passed must be a boolean")
			return
		}
		passed = v
	}

	result, err := s.storage.CompleteInspection(r.Context(), mux.Vars(r)["id"], passed)
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}

	outcome := "passed"
	if !passed {
		outcome = "failed"
	}
	respondJSON(w, http.StatusOK, dataResponse{
		Message: "Inspection marked as " + outcome,
		Data: inspectionData{
			ContainerID:   result.ContainerID,
			Status:        result.InspectionStatus,
			OverallStatus: result.OverallStatus,
		},
	})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	result, err := s.storage.ReleaseContainer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondStorageError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dataResponse{
		Message: "Container released successfully",
		Data: releaseData{
			ContainerID:    result.ContainerID,
			Status:         result.OverallStatus,
			ShippingStatus: result.ShippingStatus,
			ReadyForPickup: true,
		},
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, "Request too large", fmt.Sprintf("limit is %d bytes", limit))
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, "Invalid request", "request body is empty")
		default:
			respondError(w, http.StatusBadRequest, "Invalid request", err.Error())
		}
		return false
	}
	return true
}

func requireID(w http.ResponseWriter, id string) bool {
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "Invalid request", "container_id is required")
		return false
	}
	return true
}
