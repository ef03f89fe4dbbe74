package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/devbasics/internal/adapters/mq/pubsub"
	"github.com/okian/devbasics/internal/domain/model"
)

type authEventRequest struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Delivered int    `json:"delivered"`
}

// EventsHandler lets outside callers ask for the auth overlay through the
// broadcast channel.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleAuthEvent handles POST /events/auth. A repeated id is acknowledged
// as a duplicate and not delivered again.
func (h *EventsHandler) HandleAuthEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.auth_event"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req authEventRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	n, err := h.deps.RequestAuth(r.Context(), strings.TrimSpace(req.ID), model.ParseAuthMode(req.Mode))
	switch {
	case errors.Is(err, pubsub.ErrDuplicate):
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
	case errors.Is(err, pubsub.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	case err != nil:
		writeFailure(w, op, err)
	default:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Delivered: n})
	}
}
