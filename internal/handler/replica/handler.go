package replica

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/echotwin/echotwin/internal/model/archive"
	"github.com/echotwin/echotwin/internal/service/ai"
	replicaservice "github.com/echotwin/echotwin/internal/service/replica"
	"github.com/echotwin/echotwin/pkg/utils"
)

// Handler exposes persona synthesis, progress polling and cleanup.
type Handler struct {
	svc *replicaservice.Service
}

// New creates the replica handler.
func New(svc *replicaservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the replica routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/replica", h.handleCreate)
	r.Get("/replica/progress/{uploadID}", h.handleProgress)
	r.Post("/cleanup", h.handleCleanup)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UploadID        string `json:"uploadId"`
		SelectedPersona string `json:"selectedPersona"`
		Counterpart     string `json:"counterpart"`
		APIKey          string `json:"apiKey"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UploadID == "" || payload.SelectedPersona == "" || payload.Counterpart == "" {
		utils.RespondError(w, http.StatusBadRequest, "missing information to create replica")
		return
	}

	credential := utils.Credential(r, payload.APIKey)
	err := h.svc.Create(r.Context(), credential, payload.UploadID, payload.SelectedPersona, payload.Counterpart)
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "replica created successfully"})
	case errors.Is(err, archive.ErrNotFound):
		utils.RespondError(w, http.StatusBadRequest, "upload session expired or invalid, please upload the file again")
	case errors.Is(err, archive.ErrEmptyHistory):
		utils.RespondError(w, http.StatusBadRequest, "chat history contains no usable turns")
	case errors.Is(err, ai.ErrMissingCredential):
		utils.RespondError(w, http.StatusUnauthorized, "missing API credential")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "failed to create replica")
	}
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	utils.RespondJSON(w, http.StatusOK, h.svc.Progress(uploadID))
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UploadID string `json:"uploadId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UploadID == "" {
		utils.RespondError(w, http.StatusBadRequest, "uploadId is required")
		return
	}

	if err := h.svc.Cleanup(payload.UploadID); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to clean up session artifacts")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "session artifacts cleaned up"})
}
