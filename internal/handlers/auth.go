package handlers

import (
	"encoding/json"
	"net/http"

	"quizzer-backend/internal/models"
	"quizzer-backend/internal/services"
)

type AuthHandler struct {
	*ErrorHandler
	authService *services.AuthService
}

func NewAuthHandler(errs *ErrorHandler, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{ErrorHandler: errs, authService: authService}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "Invalid request body")
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
