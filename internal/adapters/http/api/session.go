package api

import (
	"net/http"

	"github.com/okian/devbasics/internal/domain/model"
)

type modeRequest struct {
	Mode string `json:"mode"`
}

type authRequest struct {
	Mode string `json:"mode"`
	model.Credentials
}

// SessionHandler exposes the session store: the signed-in user, the auth
// overlay and the auth form.
type SessionHandler struct {
	store SessionStore
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// HandleGet handles GET /session.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// HandleOpen handles POST /session/modal/open. The body is optional.
func (h *SessionHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_open"
	h.withMode(w, r, op, h.store.OpenModal)
}

// HandleMode handles POST /session/modal/mode. It does nothing while the
// overlay is closed.
func (h *SessionHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_mode"
	h.withMode(w, r, op, h.store.SetMode)
}

// HandleClose handles POST /session/modal/close.
func (h *SessionHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	h.store.CloseModal()
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

func (h *SessionHandler) withMode(w http.ResponseWriter, r *http.Request, op string, apply func(model.AuthMode)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req modeRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	apply(model.ParseAuthMode(req.Mode))
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// HandleAuth handles POST /session/auth: validate, log in or register.
func (h *SessionHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_auth"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req authRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.store.SubmitAuth(r.Context(), model.ParseAuthMode(req.Mode), req.Credentials)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleLogout handles POST /session/logout.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_logout"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := h.store.Logout(r.Context()); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}
