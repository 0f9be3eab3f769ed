package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-calendar-agent/internal/orchestrator"
)

type conversation interface {
	Send(ctx context.Context, text string) (string, error)
}

// ChatHandler accepts user messages and relays them through the conversation
// orchestrator.
type ChatHandler struct {
	conversation conversation
	responder    responder
}

// NewChatHandler wires a handler over an active conversation.
func NewChatHandler(conversation conversation, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{conversation: conversation, responder: newResponder(logger)}
}

// Send relays one user message and returns the agent's reply. A conversation
// that is still working on a previous message answers 409 with a wait
// message; every other failure still carries a readable reply so the chat
// surface never goes silent.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.conversation == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("message is required"))
		return
	}

	reply, err := h.conversation.Send(r.Context(), message)
	if err != nil {
		if errors.Is(err, orchestrator.ErrBusy) {
			h.responder.writeJSON(r.Context(), w, http.StatusConflict, chatResponse{Reply: reply})
			return
		}
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "conversation degraded", "error", err)
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, chatResponse{Reply: reply})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}
