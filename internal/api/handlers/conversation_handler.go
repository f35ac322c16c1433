package handlers

import (
	"net/http"

	"github.com/markdave123-py/docsearch/internal/services"
)

type ConversationHandler struct {
	conversations *services.ConversationService
}

func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

func (h *ConversationHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}
	conv, err := h.conversations.GetLatestConversation(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}
	conv, err := h.conversations.CreateNewConversation(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUser(w, r)
	if !ok {
		return
	}
	msg, err := h.conversations.ClearConversations(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
