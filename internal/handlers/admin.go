package handlers

import (
	"net/http"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/services"
	"go.uber.org/zap"
)

// AdminHandler handles the /admin endpoints
type AdminHandler struct {
	complaintSvc  *services.ComplaintService
	departmentSvc *services.DepartmentService
	activitySvc   *services.ActivityLogService
	logger        *zap.SugaredLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(cs *services.ComplaintService, ds *services.DepartmentService, as *services.ActivityLogService, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{complaintSvc: cs, departmentSvc: ds, activitySvc: as, logger: logger}
}

// Complaints handles GET /admin/complaints?status=&department=
func (h *AdminHandler) Complaints(w http.ResponseWriter, r *http.Request) {
	filter := models.ComplaintFilter{Department: r.URL.Query().Get("department")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "Unknown status")
			return
		}
		filter.Status = status
	}

	complaints, err := h.complaintSvc.ListAll(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Departments handles GET /admin/departments
func (h *AdminHandler) Departments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.departmentSvc.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, depts)
}

// Assign handles PUT /admin/assign?complaintId=&departmentName=&officerName=
func (h *AdminHandler) Assign(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r.FormValue("complaintId"))
	if !ok {
		return
	}

	complaint, err := h.complaintSvc.Assign(r.Context(), p, id, r.FormValue("departmentName"), r.FormValue("officerName"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, complaint)
}

// Activity handles GET /admin/activity
func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	logs, err := h.activitySvc.FetchRecent(r.Context(), 100)
	if err != nil {
		h.logger.Errorw("Failed to fetch recent activity", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch recent activity")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
