package handlers

import (
	"net/http"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/services"
	"go.uber.org/zap"
)

// DepartmentHandler handles the /department endpoints
type DepartmentHandler struct {
	complaintSvc *services.ComplaintService
	logger       *zap.SugaredLogger
}

// NewDepartmentHandler creates a new department handler
func NewDepartmentHandler(cs *services.ComplaintService, logger *zap.SugaredLogger) *DepartmentHandler {
	return &DepartmentHandler{complaintSvc: cs, logger: logger}
}

// Complaints handles GET /department/complaints?status=
func (h *DepartmentHandler) Complaints(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var status models.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, ok := models.ParseStatus(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "Unknown status")
			return
		}
		status = parsed
	}

	complaints, err := h.complaintSvc.ListForDepartment(r.Context(), p, status)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Resolve handles PUT /department/resolve?complaintId=&note=
func (h *DepartmentHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r.FormValue("complaintId"))
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.Resolve(r.Context(), p, id, r.FormValue("note"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}
