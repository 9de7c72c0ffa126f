package handlers

import (
	"net/http"

	"zoomclip/internal/httpkit"
	"zoomclip/internal/zoomvideo"
)

// Presets lists the output formats a job can request.
func (h *Handler) Presets(w http.ResponseWriter, r *http.Request) error {
	httpkit.WriteJSON(w, http.StatusOK, map[string]any{
		"default": zoomvideo.DefaultFormat,
		"presets": zoomvideo.Presets(),
	})
	return nil
}
