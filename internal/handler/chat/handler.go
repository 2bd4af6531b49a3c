package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ranjit123-yst/ananya/internal/identity"
	"github.com/ranjit123-yst/ananya/internal/service/orchestrator"
	"github.com/ranjit123-yst/ananya/pkg/utils"
)

// Handler exposes the chat pipeline over HTTP.
type Handler struct {
	orch *orchestrator.Orchestrator
}

// New creates the chat handler.
func New(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes registers the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/history", h.handleHistory)
}

type chatRequest struct {
	Message   string `json:"message"`
	Mode      string `json:"mode"`
	SessionID string `json:"sessionId"`
}

// handleChat runs one chat turn for the resolved visitor.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	resp, err := h.orch.Chat(r.Context(), orchestrator.Request{
		Identity:  identity.FromRequest(r),
		Message:   payload.Message,
		Mode:      payload.Mode,
		SessionID: payload.SessionID,
	})
	if err != nil {
		h.respondChatError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   resp.Message,
		"sessionId": resp.SessionID,
		"remaining": resp.Remaining,
	})
}

// handleHistory returns the visitor's stored conversation and quota status.
// No session is a valid state, reported as an empty history with full quota.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	hist := h.orch.History(r.Context(), identity.FromRequest(r))

	var sessionID *string
	if hist.SessionID != "" {
		sessionID = &hist.SessionID
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"messages":  hist.Messages,
		"sessionId": sessionID,
		"remaining": hist.Remaining,
	})
}

func (h *Handler) respondChatError(w http.ResponseWriter, err error) {
	var quotaErr *orchestrator.QuotaError
	var moderationErr *orchestrator.ModerationError

	switch {
	case errors.Is(err, orchestrator.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "API is not properly configured. Please contact the administrator.")
	case errors.Is(err, orchestrator.ErrInvalidMode):
		utils.RespondError(w, http.StatusBadRequest, "Invalid mode selected.")
	case errors.As(err, &quotaErr):
		utils.RespondJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"success":   false,
			"error":     fmt.Sprintf("Daily message limit reached. Your limit resets at %s.", quotaErr.ResetAt.Format(time.Kitchen)),
			"remaining": 0,
		})
	case errors.As(err, &moderationErr):
		utils.RespondError(w, http.StatusBadRequest, moderationErr.Reason)
	case errors.Is(err, orchestrator.ErrUpstream):
		utils.RespondError(w, http.StatusInternalServerError, "Failed to generate response. Please try again later.")
	default:
		utils.RespondError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
	}
}
