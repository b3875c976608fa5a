package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/civicpulse/grievance-server/internal/models"
	"github.com/civicpulse/grievance-server/internal/services"
	"go.uber.org/zap"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	userSvc *services.UserService
	logger  *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(us *services.UserService, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{userSvc: us, logger: logger}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userSvc.Register(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.userSvc.Login(r.Context(), req, time.Now())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
