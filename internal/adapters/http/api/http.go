// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/devbasics/internal/domain/chat"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/domain/scoring"
	"github.com/okian/devbasics/internal/domain/survey"
	"github.com/okian/devbasics/internal/domain/types"
	"github.com/okian/devbasics/internal/session"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Preview(st survey.State) scoring.Preview
	SubmitAssessment(ctx context.Context, st survey.State) (types.Submission, error)
	SaveChat(ctx context.Context, transcript []chat.Message, summary string) (types.Submission, error)
	RequestAuth(ctx context.Context, id string, mode model.AuthMode) (int, error)
}

// SessionStore is the part of the session store the handlers drive.
type SessionStore interface {
	Snapshot() types.SessionView
	OpenModal(mode model.AuthMode)
	CloseModal()
	SetMode(mode model.AuthMode)
	SubmitAuth(ctx context.Context, mode model.AuthMode, creds model.Credentials) (session.AuthResult, error)
	Logout(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	assessmentHandler *AssessmentHandler
	sessionHandler    *SessionHandler
	eventsHandler     *EventsHandler
	chatHandler       *ChatHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, store SessionStore, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		assessmentHandler: NewAssessmentHandler(deps),
		sessionHandler:    NewSessionHandler(store),
		eventsHandler:     NewEventsHandler(deps),
		chatHandler:       NewChatHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/assessment/preview", MetricsMiddleware(s.assessmentHandler.HandlePreview, "assessment_preview"))
	mux.HandleFunc("/assessment/submit", MetricsMiddleware(s.assessmentHandler.HandleSubmit, "assessment_submit"))

	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleGet, "session"))
	mux.HandleFunc("/session/modal/open", MetricsMiddleware(s.sessionHandler.HandleOpen, "session_modal_open"))
	mux.HandleFunc("/session/modal/close", MetricsMiddleware(s.sessionHandler.HandleClose, "session_modal_close"))
	mux.HandleFunc("/session/modal/mode", MetricsMiddleware(s.sessionHandler.HandleMode, "session_modal_mode"))
	mux.HandleFunc("/session/auth", MetricsMiddleware(s.sessionHandler.HandleAuth, "session_auth"))
	mux.HandleFunc("/session/logout", MetricsMiddleware(s.sessionHandler.HandleLogout, "session_logout"))

	mux.HandleFunc("/events/auth", MetricsMiddleware(s.eventsHandler.HandleAuthEvent, "events_auth"))
	mux.HandleFunc("/chat/save", MetricsMiddleware(s.chatHandler.HandleSave, "chat_save"))
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}

// decodeJSON reads a JSON body into v. An empty body is accepted when
// optional is set and leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// writeFailure maps an operation error onto a status and error body.
// Messages meant for the user are passed through unchanged.
func writeFailure(w http.ResponseWriter, op string, err error) {
	var verr *session.ValidationError
	var serr *types.SubmitError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Code:    "invalid_input",
			Message: WrapKind(op, ErrInvalidInput, err).Error(),
			Fields:  verr.Fields,
		})
	case errors.Is(err, session.ErrPending):
		writeError(w, http.StatusConflict, "pending", NewKind(op, ErrPending))
	case errors.As(err, &serr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Code: "upstream_error", Message: serr.Message})
	case errors.Is(err, session.ErrNoAuthenticator), errors.Is(err, session.ErrClosed), errors.Is(err, types.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
	}
}
