// Package handlers contains HTTP request handlers for the grievance API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/civicpulse/grievance-server/internal/auth"
	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/services"
	"github.com/civicpulse/grievance-server/internal/uploads"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ComplaintHandler handles the /citizen/complaints endpoints
type ComplaintHandler struct {
	complaintSvc *services.ComplaintService
	uploads      *uploads.Store
	maxUpload    int64
	logger       *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler. maxUpload bounds the
// multipart body in bytes.
func NewComplaintHandler(cs *services.ComplaintService, us *uploads.Store, maxUpload int64, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: cs, uploads: us, maxUpload: maxUpload, logger: logger}
}

// Submit handles POST /citizen/complaints (multipart/form-data).
// Attachments are written before the complaint record is created.
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := models.ComplaintInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Location:    r.FormValue("location"),
		Latitude:    r.FormValue("latitude"),
		Longitude:   r.FormValue("longitude"),
		Address:     r.FormValue("address"),
		Priority:    r.FormValue("priority"),
	}

	names, err := h.uploads.Save(r.MultipartForm.File["images"])
	if err != nil {
		h.logger.Errorw("Failed to store attachments", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to store attachments")
		return
	}

	complaint, err := h.complaintSvc.Create(r.Context(), p, in, names)
	if err != nil {
		h.uploads.Remove(names)
		respondServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         complaint.ID,
		"trackingId": complaint.ID,
		"status":     complaint.Status,
	})
}

// Mine handles GET /citizen/complaints/my
func (h *ComplaintHandler) Mine(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	complaints, err := h.complaintSvc.ListMine(r.Context(), p)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Get handles GET /citizen/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	complaint, err := h.complaintSvc.View(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Timeline handles GET /citizen/complaints/{id}/timeline
func (h *ComplaintHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	logs, err := h.complaintSvc.Timeline(r.Context(), p, id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// Feedback handles POST /citizen/complaints/{id}/feedback
func (h *ComplaintHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rating, err := strconv.Atoi(r.FormValue("rating"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Rating must be a number")
		return
	}

	complaint, err := h.complaintSvc.SubmitFeedback(r.Context(), p, id, r.FormValue("feedback"), rating)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// All handles GET /citizen/complaints/all
func (h *ComplaintHandler) All(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.complaintSvc.ListAll(r.Context(), models.ComplaintFilter{})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Assign handles PUT /citizen/complaints/{id}/assign
func (h *ComplaintHandler) Assign(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.Assign(r.Context(), p, id, r.FormValue("department"), r.FormValue("officer"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// requirePrincipal returns the gate's principal or writes a 401
func requirePrincipal(w http.ResponseWriter, r *http.Request) (models.Principal, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
	}
	return p, ok
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return parseID(w, chi.URLParam(r, "id"))
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid complaint id")
		return 0, false
	}
	return id, true
}

// respondServiceError maps service failure kinds to status codes. Unknown
// errors are logged and answered with a generic 500.
func respondServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrAccessDenied):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		// never say which check failed
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
	default:
		logger.Errorw("Request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
