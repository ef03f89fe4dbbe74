package api

import (
	"net/http"

	"github.com/okian/devbasics/internal/domain/chat"
)

type chatRequest struct {
	Transcript []chat.Message `json:"transcript"`
	Summary    string         `json:"summary"`
}

// ChatHandler saves chat transcripts.
type ChatHandler struct {
	deps Dependencies
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(deps Dependencies) *ChatHandler {
	return &ChatHandler{deps: deps}
}

// HandleSave handles POST /chat/save. An empty body saves the starter
// conversation with the default summary.
func (h *ChatHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.chat_save"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req chatRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sub, err := h.deps.SaveChat(r.Context(), req.Transcript, req.Summary)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}
