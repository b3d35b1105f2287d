package memory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	memoryservice "github.com/echotwin/echotwin/internal/service/memory"
	"github.com/echotwin/echotwin/pkg/utils"
)

// Handler exposes keyword search over a session's raw history.
type Handler struct {
	svc *memoryservice.Service
}

// New creates the memory-search handler.
func New(svc *memoryservice.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the search route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/memory/search", h.handleSearch)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UploadID string `json:"uploadId"`
		Query    string `json:"query"`
		Persona  string `json:"persona"`
		Limit    int    `json:"limit"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UploadID == "" || payload.Query == "" {
		utils.RespondError(w, http.StatusBadRequest, "uploadId and query are required")
		return
	}

	results, err := h.svc.Search(r.Context(), payload.UploadID, payload.Query, payload.Persona, payload.Limit)
	switch {
	case err == nil:
		if results == nil {
			results = []string{}
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{"results": results})
	case errors.Is(err, memoryservice.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, "history not found for this session")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "failed to search history")
	}
}
