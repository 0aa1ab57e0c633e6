package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/paddock/internal/chat"
	"github.com/okian/paddock/pkg/logger"
)

// ChatDependencies relays one chat message.
type ChatDependencies interface {
	Chat(ctx context.Context, message string) (string, error)
}

// ChatHandler serves POST /api/chat. Its errors use the {"error": ...}
// shape the chat widget reads, not errorResponse.
type ChatHandler struct {
	deps ChatDependencies
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps ChatDependencies) *ChatHandler {
	return &ChatHandler{deps: deps}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type chatError struct {
	Error string `json:"error"`
}

// HandlePostChat handles POST /api/chat. An unreadable body is a 500 and
// only an empty message is a 400; whitespace is relayed.
func (h *ChatHandler) HandlePostChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		logger.Get().Named("http").Warn(r.Context(), "chat body unreadable",
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, chatError{Error: "Internal Server Error"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, chatError{Error: "No message provided"})
		return
	}

	reply, err := h.deps.Chat(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeJSON(w, http.StatusBadRequest, chatError{Error: "No message provided"})
	case err != nil:
		logger.Get().Named("http").Error(r.Context(), "chat relay failed",
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, chatError{Error: "Internal Server Error"})
	default:
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}
