package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/echotwin/echotwin/internal/service/ai"
	chatservice "github.com/echotwin/echotwin/internal/service/chat"
	"github.com/echotwin/echotwin/pkg/utils"
)

// Handler serves chat turns against a session's replica.
type Handler struct {
	svc *chatservice.Service
}

// New creates the chat handler.
func New(svc *chatservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the chat route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UploadID string `json:"uploadId"`
		Message  string `json:"message"`
		APIKey   string `json:"apiKey"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UploadID == "" || payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "uploadId and message are required")
		return
	}

	credential := utils.Credential(r, payload.APIKey)
	reply, err := h.svc.SendMessage(r.Context(), credential, payload.UploadID, payload.Message)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
	case errors.Is(err, chatservice.ErrSessionNotReady):
		utils.RespondError(w, http.StatusBadRequest, "chat session not started, create a replica first")
	case errors.Is(err, ai.ErrMissingCredential):
		utils.RespondError(w, http.StatusUnauthorized, "missing API credential")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "failed to get a response from the AI")
	}
}
