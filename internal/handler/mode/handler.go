package mode

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ranjit123-yst/ananya/internal/model/mode"
	"github.com/ranjit123-yst/ananya/pkg/utils"
)

// Handler serves the mode list consumed by the mode selector UI.
type Handler struct {
	modes mode.Store
}

// New creates the mode handler.
func New(modes mode.Store) *Handler {
	return &Handler{modes: modes}
}

// RegisterRoutes registers the mode endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/modes", h.handleListModes)
}

func (h *Handler) handleListModes(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"modes":   h.modes.List(),
	})
}
