package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/okian/devbasics/internal/domain/survey"
)

// AssessmentHandler serves the live preview and the assessment submission.
type AssessmentHandler struct {
	deps Dependencies
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps Dependencies) *AssessmentHandler {
	return &AssessmentHandler{deps: deps}
}

// HandlePreview handles POST /assessment/preview. An empty body previews
// the default answers; otherwise the body is the whole form and anything it
// omits is zero.
func (h *AssessmentHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	const op = "api.assessment_preview"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var st survey.State
	err := decodeJSON(w, r, &st, false)
	switch {
	case errors.Is(err, io.EOF):
		st = survey.DefaultState()
	case err != nil:
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Preview(st))
}

// HandleSubmit handles POST /assessment/submit.
func (h *AssessmentHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.assessment_submit"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var st survey.State
	if err := decodeJSON(w, r, &st, false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sub, err := h.deps.SubmitAssessment(r.Context(), st)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}
