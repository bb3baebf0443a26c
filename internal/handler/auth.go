package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/auth"
)

// AuthHandler serves the manager login check.
type AuthHandler struct {
	manager *auth.Manager
}

func NewAuthHandler(manager *auth.Manager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.manager.Login(req.Password); err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			log.Error().Msg("handler: manager password secret is not configured")
			respondWithJSON(w, http.StatusInternalServerError, loginResponse{Success: false, Error: "server configuration error"})
			return
		}
		respondWithJSON(w, http.StatusUnauthorized, loginResponse{Success: false, Error: "invalid password"})
		return
	}

	respondWithJSON(w, http.StatusOK, loginResponse{Success: true})
}
