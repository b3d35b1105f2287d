package upload

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/echotwin/echotwin/internal/model/archive"
	"github.com/echotwin/echotwin/pkg/utils"
)

// maxUploadBytes bounds the accepted export size.
const maxUploadBytes = 64 << 20

// Handler accepts chat export uploads and mints upload sessions.
type Handler struct {
	archives archive.Store
}

// New creates the upload handler.
func New(archives archive.Store) *Handler {
	return &Handler{archives: archives}
}

// RegisterRoutes mounts the upload route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("chatfile")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	if strings.ToLower(filepath.Ext(header.Filename)) != ".json" {
		utils.RespondError(w, http.StatusBadRequest, "invalid file type, please upload a JSON export")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "error reading the chat file")
		return
	}

	doc, err := archive.Parse(data)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrTooFewParticipants):
			utils.RespondError(w, http.StatusBadRequest, "chat file must have at least two participants")
		default:
			utils.RespondError(w, http.StatusBadRequest, "error reading the chat file")
		}
		return
	}

	uploadID := uuid.NewString()
	if err := h.archives.SaveArchive(uploadID, doc); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to store the chat file")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"uploadId":     uploadID,
		"participants": doc.ParticipantNames(),
	})
}
