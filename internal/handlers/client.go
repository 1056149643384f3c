package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"textdesk-backend/internal/middleware"
	"textdesk-backend/internal/models"
)

type tokenIssuer interface {
	GenerateClientToken(clientID uuid.UUID) (string, error)
}

type ClientHandler struct {
	tokens tokenIssuer
	logger *zap.Logger
}

func NewClientHandler(tokens tokenIssuer, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{tokens: tokens, logger: logger}
}

// Create issues a fresh anonymous client id. The browser keeps the token and
// sends it on every other call.
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	clientID := uuid.New()

	token, err := h.tokens.GenerateClientToken(clientID)
	if err != nil {
		h.logger.Error("Failed to sign client token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
		return
	}

	writeJSON(w, http.StatusCreated, models.ClientTokenResponse{
		ClientID:    clientID,
		AccessToken: token,
		ExpiresIn:   int(middleware.ClientTokenTTL.Seconds()),
	})
}
